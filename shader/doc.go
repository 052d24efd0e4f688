// Package shader compiles WGSL vertex programs with naga and reflects their
// inputs and outputs into draw vertex layouts.
//
// The reflected output layout tells the emission stage what a
// post-transform vertex looks like: slot 0 carries the clip position and
// each @location(n) output occupies slot n+1. The reflected input layout
// describes the interleaved vertex data the executor fetches.
package shader
