// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package kpm

import "github.com/onosproject/onos-ntn-ric/pkg/servicemodel"

// Options KPM service model options
type Options struct {
	Encoding servicemodel.Encoding
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

// WithEncoding requests a payload encoding
func WithEncoding(encoding servicemodel.Encoding) Option {
	return newOption(func(options *Options) {
		options.Encoding = encoding
	})
}
