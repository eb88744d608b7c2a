package runtime

import (
	"errors"
	"fmt"

	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

var ErrNotAuthorized = errors.New("caller is not an admin")

// Authorizer decides who may call the privileged entry points.
type Authorizer interface {
	Authorize(caller lightclient.AccountID) error
}

type AdminSet map[lightclient.AccountID]struct{}

func NewAdminSet(admins ...lightclient.AccountID) AdminSet {
	set := make(AdminSet, len(admins))
	for _, admin := range admins {
		set[admin] = struct{}{}
	}
	return set
}

func (s AdminSet) Authorize(caller lightclient.AccountID) error {
	if _, ok := s[caller]; !ok {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
	}
	return nil
}
