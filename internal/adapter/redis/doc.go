// Package redis holds the go-redis client and the teacher session token
// store. Every command passes through a metrics hook and a circuit breaker.
package redis
