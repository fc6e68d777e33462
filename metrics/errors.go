package metrics

import "errors"

// errNegativeDelta is returned by Counter.Add when delta < 0.
var errNegativeDelta = errors.New("metrics: counter Add requires delta >= 0")
