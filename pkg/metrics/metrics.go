// Copyright 2025 The Arcan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics defines minimal counter and gauge abstractions so that
// components can be instrumented without depending on a concrete metrics
// implementation. Production code plugs in the prometheus-backed constructors
// in this package, tests use the fakes.
package metrics

// Counter describes a metric that accumulates values monotonically.
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge describes a metric that takes specific values over time.
type Gauge interface {
	With(labelValues ...string) Gauge
	Set(value float64)
	Add(delta float64)
}

// CounterInc increments the counter by one, if it is not nil.
func CounterInc(c Counter) {
	if c == nil {
		return
	}
	c.Add(1)
}

// CounterAdd increases the counter by the given delta, if it is not nil.
func CounterAdd(c Counter, delta float64) {
	if c == nil {
		return
	}
	c.Add(delta)
}

// CounterWith returns a counter with the given label values attached, if it is
// not nil.
func CounterWith(c Counter, labelValues ...string) Counter {
	if c == nil {
		return nil
	}
	return c.With(labelValues...)
}

// GaugeSet sets the gauge to the given value, if it is not nil.
func GaugeSet(g Gauge, value float64) {
	if g == nil {
		return
	}
	g.Set(value)
}
