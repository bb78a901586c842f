// Package trigger connects a physical push button to the provisioning
// arbiter. The button line is read through the Linux GPIO character device.
package trigger
