// Package simulation seeds a circulation.Registry from a catalog and replays a scripted scenario
// against it, one simulated day at a time, on a circulation.ManualClock.
package simulation
