// Package viz renders model views in the terminal.
//
//   - [Chart]: dispatches a view to the right renderer
//   - [LineChart]: time series through asciigraph, one colored line per curve
//   - [FieldChart]: direction segments on a Braille [Canvas]
//   - [Metrics]: the metric block printed under a chart
//
// Idle views render their axes only, with the view's message as caption.
package viz
