// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/logger"
)

// Listener - a server bound to its configured addresses
type Listener interface {
	Serve() error
	Stop() error
}

// "*:PORT" becomes "[::]:PORT" on the assumption that this will
// listen on tcp4 and tcp6, returns the network of each address
func parseListenAddress(addrs []string, log *logger.L) ([]string, []string, error) {
	networks := make([]string, len(addrs))
	addresses := make([]string, len(addrs))
	for i, listen := range addrs {
		if "" == listen {
			return nil, nil, errors.Wrap(fault.InvalidIpAddress, "empty listen address")
		}

		host, port, err := net.SplitHostPort(listen)
		if nil != err {
			log.Errorf("listen: %q  error: %s", listen, err)
			return nil, nil, errors.Wrapf(fault.InvalidIpAddress, "listen: %q", listen)
		}

		switch {
		case "*" == host:
			host = "::"
			networks[i] = "tcp"
		case strings.Contains(host, ":"):
			networks[i] = "tcp6"
		default:
			networks[i] = "tcp4"
		}

		if ip := net.ParseIP(host); nil == ip {
			log.Errorf("listen: %q  error: %s", listen, fault.InvalidIpAddress)
			return nil, nil, errors.Wrapf(fault.InvalidIpAddress, "listen: %q", listen)
		}
		addresses[i] = net.JoinHostPort(host, port)
	}

	return networks, addresses, nil
}
