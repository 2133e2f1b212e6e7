package event

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/gatherly/event-service/internal/domain"
)

const (
	joinCodeLen      = 8
	joinCodeAttempts = 5
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeChecker is the slice of the store the issuer needs: a uniqueness probe
// over the join codes of all non-deleted events.
type CodeChecker interface {
	JoinCodeExists(ctx context.Context, code string) (bool, error)
}

// JoinCodeIssuer allocates short opaque join codes. The pre-check here is
// optimistic: the store's unique constraint remains the authority, and the
// creation path treats a constraint violation as one more collision.
type JoinCodeIssuer struct {
	store CodeChecker
	gen   func(n int) (string, error)
}

func NewJoinCodeIssuer(store CodeChecker) *JoinCodeIssuer {
	return &JoinCodeIssuer{store: store, gen: randomCode}
}

// Issue returns a code not currently present in the store, retrying up to the
// fixed budget. Exhaustion is a server-side failure, not a client mistake.
func (i *JoinCodeIssuer) Issue(ctx context.Context) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := i.gen(joinCodeLen)
		if err != nil {
			return "", err
		}
		exists, err := i.store.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", domain.ErrGenerationExhausted(joinCodeAttempts)
}

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = joinCodeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
