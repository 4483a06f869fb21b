package tensor

// Device identifies where a tensor's data lives.
type Device int

// Supported devices. Only CPU has a backend in this module.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

var deviceNames = [...]string{CPU: "CPU", CUDA: "CUDA", WebGPU: "WebGPU"}

// String returns the device name.
func (d Device) String() string {
	if d < 0 || int(d) >= len(deviceNames) {
		return "Unknown"
	}
	return deviceNames[d]
}
