// Package util has small helpers shared across the renderer.
package util

import "math"

// MovingWindow keeps running mean and standard deviation over the last
// capacity values pushed into it. The display uses one to auto-scale
// telemetry traces against recent peak levels.
type MovingWindow struct {
	ring []float64
	head int
	len  int

	sum   float64
	sqsum float64
}

// NewMovingWindow returns a window over the last size values.
func NewMovingWindow(size int) *MovingWindow {
	if size < 1 {
		size = 1
	}
	return &MovingWindow{ring: make([]float64, size)}
}

// Update pushes a value, evicting the oldest when full, and returns the new
// mean and standard deviation.
func (mw *MovingWindow) Update(value float64) (mean, stddev float64) {
	if mw.len == len(mw.ring) {
		old := mw.ring[mw.head]
		mw.sum -= old
		mw.sqsum -= old * old
	} else {
		mw.len++
	}

	mw.ring[mw.head] = value
	mw.head = (mw.head + 1) % len(mw.ring)

	mw.sum += value
	mw.sqsum += value * value

	return mw.Stats()
}

// Drop discards the oldest count values.
func (mw *MovingWindow) Drop(count int) (mean, stddev float64) {
	for count > 0 && mw.len > 0 {
		idx := (mw.head - mw.len + len(mw.ring)) % len(mw.ring)
		old := mw.ring[idx]
		mw.sum -= old
		mw.sqsum -= old * old
		mw.len--
		count--
	}
	if mw.len == 0 {
		// Clear accumulated rounding error along with the content.
		mw.sum = 0
		mw.sqsum = 0
	}
	return mw.Stats()
}

// Len returns how many values the window currently holds.
func (mw *MovingWindow) Len() int { return mw.len }

// Cap returns the window capacity.
func (mw *MovingWindow) Cap() int { return len(mw.ring) }

// Mean returns the current average.
func (mw *MovingWindow) Mean() float64 {
	mean, _ := mw.Stats()
	return mean
}

// StdDev returns the current standard deviation.
func (mw *MovingWindow) StdDev() float64 {
	_, stddev := mw.Stats()
	return stddev
}

// Stats returns the current mean and standard deviation.
func (mw *MovingWindow) Stats() (mean, stddev float64) {
	if mw.len == 0 {
		return 0, 0
	}
	n := float64(mw.len)
	mean = mw.sum / n

	if mw.len > 1 {
		variance := (mw.sqsum / n) - mean*mean
		stddev = math.Sqrt(math.Abs(variance))
	}
	return mean, stddev
}
