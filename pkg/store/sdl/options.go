// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package sdl

// Options SDL client options
type Options struct {
	RedisAddress string
	RedisDB      int
	Backend      Backend
}

// Option option interface
type Option interface {
	apply(*Options)
}

type funcOption struct {
	f func(*Options)
}

func (f funcOption) apply(options *Options) {
	f.f(options)
}

func newOption(f func(*Options)) Option {
	return funcOption{
		f: f,
	}
}

// WithRedisAddress backs the client with a Redis store at the given address
func WithRedisAddress(address string) Option {
	return newOption(func(options *Options) {
		options.RedisAddress = address
	})
}

// WithRedisDB selects the Redis database index
func WithRedisDB(db int) Option {
	return newOption(func(options *Options) {
		options.RedisDB = db
	})
}

// WithBackend overrides the backend entirely
func WithBackend(backend Backend) Option {
	return newOption(func(options *Options) {
		options.Backend = backend
	})
}
