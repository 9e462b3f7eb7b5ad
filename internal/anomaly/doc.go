// Package anomaly applies a fixed rule set over the reconciled timeline and
// reports typed, severity-tagged deviations. Each rule is a pure function;
// rules are independent and several may fire on the same clip.
package anomaly
