// Package pool wraps ants worker pools with statistics and a fan-out helper.
package pool

import "errors"

var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolOverload 池已满
	ErrPoolOverload = errors.New("pool is overloaded")
)
