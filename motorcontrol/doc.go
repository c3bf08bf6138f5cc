// Package motorcontrol configures Talon SRX and Victor SPX motor controllers.
//
// Configuration structs are flat values. ConfigAllSettings writes every field
// of a struct as individual parameters and GetAllConfigs reads them back, so
// a configure followed by a read yields an equal struct. Batch calls attempt
// every write and report the worst error using phoenix.ErrorCollection.
//
// Every call goes through a phoenix.Native, typically a canlink.Link:
//
//	n := canlink.NewNetwork(bus, nil)
//	h, _ := phoenix.NewHandle(phoenix.TalonSRXBase, 3)
//	talon, _ := motorcontrol.NewTalonSRX(n.Link(h))
//	cfg := motorcontrol.NewTalonSRXConfiguration()
//	cfg.PeakCurrentLimit = 40
//	err := talon.ConfigAllSettingsDefault(ctx, &cfg)
//
// Closed-loop control, limit switch handling and current limiting run in the
// device firmware. This package only selects their settings.
package motorcontrol
