package optim

import (
	"math"

	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*runtime.Tensor
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int                                   // Timestep for bias correction
	m      map[*runtime.Tensor]*tensor.RawTensor // First moment estimates
	v      map[*runtime.Tensor]*tensor.RawTensor // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(params []*runtime.Tensor, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*runtime.Tensor]*tensor.RawTensor),
		v:      make(map[*runtime.Tensor]*tensor.RawTensor),
	}
}

// Step performs a single optimization step using Adam algorithm.
//
// Parameters with no gradient are skipped.
func (a *Adam) Step(g *grads.Gradients) {
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		grad, ok := param.Grad(g)
		if !ok {
			continue
		}

		m, exists := a.m[param]
		if !exists {
			m = tensor.ZerosLike(param.Value())
			a.m[param] = m
		}
		v, exists := a.v[param]
		if !exists {
			v = tensor.ZerosLike(param.Value())
			a.v[param] = v
		}

		switch param.Value().DType() {
		case tensor.Float32:
			adamUpdate(a, param.Value().AsFloat32(), grad.AsFloat32(), m.AsFloat32(), v.AsFloat32(), biasCorrection1, biasCorrection2)
		case tensor.Float64:
			adamUpdate(a, param.Value().AsFloat64(), grad.AsFloat64(), m.AsFloat64(), v.AsFloat64(), biasCorrection1, biasCorrection2)
		}
	}
}

func adamUpdate[T tensor.Float](a *Adam, param, grad, m, v []T, biasCorrection1, biasCorrection2 float64) {
	for i := range param {
		g := float64(grad[i])
		mi := a.beta1*float64(m[i]) + (1-a.beta1)*g
		vi := a.beta2*float64(v[i]) + (1-a.beta2)*g*g
		m[i], v[i] = T(mi), T(vi)

		mHat := mi / biasCorrection1
		vHat := vi / biasCorrection2
		param[i] -= T(a.lr * mHat / (math.Sqrt(vHat) + a.eps))
	}
}

// ZeroGrad removes the parameters' gradients from g.
func (a *Adam) ZeroGrad(g *grads.Gradients) {
	zeroGrad(a.params, g)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam) GetTimestep() int {
	return a.t
}
