package mtr

import "time"

// NullClient drops every metric.
type NullClient struct{}

func (NullClient) Timing(string, time.Duration, map[string]string) {}
func (NullClient) Incr(string, map[string]string)                  {}
func (NullClient) Gauge(string, float64, map[string]string)        {}
func (NullClient) Count(string, int64, map[string]string)          {}
func (NullClient) Flush()                                          {}
