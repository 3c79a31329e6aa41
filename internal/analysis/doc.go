// Package analysis measures vibration fields and how particles sit on them.
//
//   - [RowProfile] and [ColumnProfile]: one line of a vibration field
//   - [PowerSpectrum] and [DominantBin]: spatial frequency content of a line
//   - [NodalFraction]: share of the plate close to a nodal line
//   - [Settledness]: how far particles have drifted toward the nodal lines
//
// # Settling
//
// Particles start uniformly spread, so the mean vibration under them equals
// the plate mean. As they collect on the nodal lines the ratio falls toward
// zero:
//
//	s := analysis.Settledness(particles, f)
//	if s < 0.25 {
//	    // pattern has formed
//	}
package analysis
