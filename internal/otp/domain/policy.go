package domain

import "time"

// Policy bounds enforced at the administrative boundary before a policy
// replacement reaches the store.
const (
	MinCodeLength = 4
	MinCodeTTL    = 60 * time.Second
)

// OtpPolicy is the singleton generation/validation policy. It is read on
// every generate and TTL evaluation and replaced wholesale by an
// administrative update; already-issued codes keep their recorded CreatedAt.
type OtpPolicy struct {
	Length int           // digits per generated code
	TTL    time.Duration // validity window measured from CreatedAt
}

// DefaultOtpPolicy seeds new deployments: 6 digits, 5 minutes.
var DefaultOtpPolicy = OtpPolicy{Length: 6, TTL: 5 * time.Minute}
