// Package aggregate turns candidate windows and participant objections into
// per-cell availability, a heatmap and an all-clear ranking of best slots.
//
// Everything here is a pure function of its inputs and holds no state across
// calls, so callers can recompute from scratch whenever new data arrives.
//
// A participant without an Objection for a window has not responded and is
// left out of that window's counts entirely. An Objection with no slots means
// the participant can attend every slot of the window.
package aggregate
