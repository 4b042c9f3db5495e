// Package simulator renders a scripted mobile-money menu in memory so the
// engine can be driven end to end without a device.
package simulator
