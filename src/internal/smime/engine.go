// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package smime

import (
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/smallstep/pkcs7"

	"github.com/FedericoGabusi/smimevault/src/config"
	"github.com/FedericoGabusi/smimevault/src/internal/resolver"
	"github.com/FedericoGabusi/smimevault/src/internal/store"
	x509certs "github.com/FedericoGabusi/smimevault/src/internal/x509/certs"
	x509chain "github.com/FedericoGabusi/smimevault/src/internal/x509/chain"
	"github.com/FedericoGabusi/smimevault/src/logger"
)

var (
	// ErrSignerCertificateNotFound indicates no usable signing certificate
	// exists for the message's from-address.
	ErrSignerCertificateNotFound = errors.New("smime: no usable signing certificate for sender")

	// ErrNoRecipients indicates an encrypt call without any to/cc address.
	ErrNoRecipients = errors.New("smime: message has no recipients")
)

// ExpiredCertificateError indicates a resolved certificate whose validity
// window does not contain the operation time, with expired use not
// permitted by configuration. The certificate is identified by fingerprint
// only; addresses never appear in protection errors.
type ExpiredCertificateError struct {
	Fingerprint string
}

func (e *ExpiredCertificateError) Error() string {
	return fmt.Sprintf("smime: certificate %s is outside its validity window", e.Fingerprint)
}

// Message is the already-composed mail the engine protects: a from-address,
// to/cc address lists, and the body payload. Composition and transport of
// the outer message belong to the caller.
type Message struct {
	From string
	To   []string
	Cc   []string
	Body []byte
}

// Engine produces signed and encrypted S/MIME payloads from resolved
// certificates. Operations are stateless single-shot calls; every failure
// is reported to the sink as (operation, outcome, message) and returned
// unchanged; nothing is swallowed, retried, or downgraded.
type Engine struct {
	resolve *resolver.Resolver
	chains  *x509chain.Builder
	cfg     *config.Config
	sink    logger.Sink
	dec     *x509certs.Certificate

	// now is stubbed in tests; each operation reads it once so a single
	// call cannot straddle an expiry boundary mid-scan.
	now func() time.Time
}

// New creates an Engine over the given store.
func New(s *store.Store, cfg *config.Config, sink logger.Sink) *Engine {
	return &Engine{
		resolve: resolver.New(s, cfg.Store.BatchSize),
		chains:  x509chain.New(s),
		cfg:     cfg,
		sink:    sink,
		dec:     x509certs.New(),
		now:     time.Now,
	}
}

// Sign produces a detached PKCS#7 signature over the message body using the
// sender's certificate and private key, packaged as a multipart/signed
// S/MIME structure including the certificate's issuer chain.
func (e *Engine) Sign(msg Message) ([]byte, error) {
	out, err := e.sign(msg)
	if err != nil {
		e.sink.Event("sign", "failed", err.Error())
		return nil, err
	}
	return out, nil
}

func (e *Engine) sign(msg Message) ([]byte, error) {
	rec, err := e.resolve.SenderCertificate(msg.From)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrSignerCertificateNotFound
	}

	if !rec.ValidAt(e.now()) && !e.cfg.Protection.AllowExpiredForSigning {
		return nil, &ExpiredCertificateError{Fingerprint: rec.Fingerprint}
	}

	cert, err := rec.Certificate()
	if err != nil {
		return nil, err
	}

	key, err := e.dec.DecodePrivateKey([]byte(rec.PrivateKey), rec.PrivateKeySecret)
	if err != nil {
		return nil, err
	}

	parents, err := e.chains.Build(cert)
	if err != nil {
		return nil, err
	}

	signedData, err := pkcs7.NewSignedData(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("smime: failed to initialize signed data: %w", err)
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := signedData.AddSignerChain(cert, key, parents, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("smime: failed to add signer: %w", err)
	}
	signedData.Detach()

	signature, err := signedData.Finish()
	if err != nil {
		return nil, fmt.Errorf("smime: failed to finish signature: %w", err)
	}

	return wrapSigned(msg.Body, signature)
}

// Encrypt encrypts the message body to every resolved recipient certificate
// using the configured symmetric cipher, packaged as an enveloped-data
// S/MIME structure.
//
// The to and cc lists are resolved independently and concatenated;
// duplicate certificates across the two lists are both included.
func (e *Engine) Encrypt(msg Message) ([]byte, error) {
	out, err := e.encrypt(msg)
	if err != nil {
		e.sink.Event("encrypt", "failed", err.Error())
		return nil, err
	}
	return out, nil
}

func (e *Engine) encrypt(msg Message) ([]byte, error) {
	if len(msg.To)+len(msg.Cc) == 0 {
		return nil, ErrNoRecipients
	}

	toRecs, err := e.resolve.RecipientCertificates(msg.To)
	if err != nil {
		return nil, err
	}
	ccRecs, err := e.resolve.RecipientCertificates(msg.Cc)
	if err != nil {
		return nil, err
	}
	records := append(toRecs, ccRecs...)

	now := e.now()
	recipients := make([]*x509.Certificate, 0, len(records))
	for _, rec := range records {
		if !rec.ValidAt(now) && !e.cfg.Protection.AllowExpiredForEncryption {
			return nil, &ExpiredCertificateError{Fingerprint: rec.Fingerprint}
		}

		cert, err := rec.Certificate()
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, cert)
	}

	alg, err := cipherAlgorithm(e.cfg.Protection.Cipher)
	if err != nil {
		return nil, err
	}

	// The library exposes the content cipher as a package-level knob; all
	// engine operations are synchronous single-shot calls, so setting it
	// per call is safe here.
	pkcs7.ContentEncryptionAlgorithm = alg

	enveloped, err := pkcs7.Encrypt(msg.Body, recipients)
	if err != nil {
		return nil, fmt.Errorf("smime: failed to encrypt message: %w", err)
	}

	return wrapEnveloped(enveloped)
}

// cipherAlgorithm maps a configuration cipher identifier onto the pkcs7
// content-encryption algorithm.
func cipherAlgorithm(cipher string) (int, error) {
	switch cipher {
	case config.CipherAES128CBC:
		return pkcs7.EncryptionAlgorithmAES128CBC, nil
	case config.CipherAES256CBC:
		return pkcs7.EncryptionAlgorithmAES256CBC, nil
	case config.CipherAES128GCM:
		return pkcs7.EncryptionAlgorithmAES128GCM, nil
	case config.CipherAES256GCM:
		return pkcs7.EncryptionAlgorithmAES256GCM, nil
	case config.CipherDESCBC:
		return pkcs7.EncryptionAlgorithmDESCBC, nil
	default:
		return 0, fmt.Errorf("smime: unknown cipher %q", cipher)
	}
}
