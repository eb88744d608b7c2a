package lightclient

import "errors"

var (
	ErrLightClientUpdateNotAllowed                 = errors.New("light client updates are paused for this chain")
	ErrNotTrustedSigner                            = errors.New("caller is not the trusted signer")
	ErrActiveHeaderSlotLessThanFinalizedSlot       = errors.New("active header slot is not newer than the finalized slot")
	ErrUpdateHeaderSlotLessThanFinalizedHeaderSlot = errors.New("update is not for the finalized or the next sync committee period")
	ErrSyncCommitteeUpdateNotPresent               = errors.New("update for the next period has no sync committee update")
	ErrInvalidUpdateSlots                          = errors.New("update slots are not ordered finalized <= attested < signature")
	ErrInvalidClientMode                           = errors.New("operation not allowed in the current client mode")
	ErrSyncCommitteeBitsSumLessThanThreshold       = errors.New("sync committee participation is below two thirds")
	ErrInvalidFinalityProof                        = errors.New("invalid finality proof")
	ErrInvalidExecutionBlockHashProof              = errors.New("invalid execution block hash proof")
	ErrInvalidNextSyncCommitteeProof               = errors.New("invalid next sync committee proof")
	ErrInvalidSignaturePeriod                      = errors.New("signature slot is not in the finalized or the next period")
	ErrInvalidSignature                            = errors.New("invalid sync committee signature")
	ErrInvalidSyncCommittee                        = errors.New("invalid sync committee")
	ErrBlockHashesDoNotMatch                       = errors.New("block hashes do not match")
	ErrInvalidBeaconBlockRoot                      = errors.New("beacon block root does not match the beacon header")
	ErrTrustlessModeError                          = errors.New("network requires update validation and BLS verification")
	ErrChainAlreadyInitialized                     = errors.New("chain is already initialized")
	ErrChainNotInitialized                         = errors.New("chain is not initialized")
)
