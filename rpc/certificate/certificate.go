// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package certificate

import (
	"crypto/tls"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/logger"
)

// Get - TLS configuration from PEM encoded certificate and key,
// nil when neither is given
func Get(log *logger.L, name, certificate, key string) (*tls.Config, [32]byte, error) {
	var fin [32]byte

	if "" == certificate && "" == key {
		log.Infof("%s: TLS disabled", name)
		return nil, fin, nil
	}

	if "" == certificate || "" == key {
		log.Errorf("%s: certificate and private key must be given together", name)
		return nil, fin, fault.MissingParameters
	}

	keyPair, err := tls.X509KeyPair([]byte(certificate), []byte(key))
	if nil != err {
		log.Errorf("%s: key pair error: %s", name, err)
		return nil, fin, err
	}

	fin = fingerprint(keyPair.Certificate[0])
	log.Infof("%s: SHA3-256 fingerprint: %x", name, fin)

	return &tls.Config{
		Certificates: []tls.Certificate{keyPair},
		MinVersion:   tls.VersionTLS12,
	}, fin, nil
}

// fingerprint - compute the fingerprint of a certificate
//
// openssl x509 -outform DER -in contextd-rpc.crt | sha3sum -a 256
func fingerprint(certificate []byte) [32]byte {
	return sha3.Sum256(certificate)
}
