// Package controller implements the radio mode state machine.
//
// The device has one radio, so station and access-point operation never
// overlap. Each loop iteration either runs a provisioning session or one
// station duty cycle:
//
//	Idle -> EnteringAccessPoint -> ProvisioningActive -> LeavingAccessPoint
//	     -> (Restarting | AttemptingStation -> StationConnected | StationFailed)
//
//	Idle -> AttemptingStation -> StationConnected | StationFailed -> OffDwell -> Idle
//
// A provisioning request interrupts a connect attempt within one poll
// interval and every dwell within one flag poll. The readiness event is set
// only while a station connection exists and is cleared at the top of every
// iteration.
package controller
