// Package slotgrid derives the fixed 30-minute slot grid used to collect and
// display availability.
//
// All functions are pure. Malformed input never produces an error; it yields
// an empty result so that a single bad row cannot block aggregation.
package slotgrid
