package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ggxchain/transaction-receipt-relayer/crypto/merkle"
)

type SpecSettings struct {
	SlotsInEpoch                 uint64 `mapstructure:"slotsInEpoch"`
	EpochsPerSyncCommitteePeriod uint64 `mapstructure:"epochsPerSyncCommitteePeriod"`
	SyncCommitteeSize            uint64 `mapstructure:"syncCommitteeSize"`
}

func (s SpecSettings) SlotsPerPeriod() uint64 {
	return s.SlotsInEpoch * s.EpochsPerSyncCommitteePeriod
}

func (s SpecSettings) Validate() error {
	if s.SlotsInEpoch == 0 {
		return errors.New("spec [slotsInEpoch] is not set")
	}
	if s.EpochsPerSyncCommitteePeriod == 0 {
		return errors.New("spec [epochsPerSyncCommitteePeriod] is not set")
	}
	if s.SyncCommitteeSize == 0 || s.SyncCommitteeSize%8 != 0 {
		return fmt.Errorf("spec [syncCommitteeSize] %d must be a non-zero multiple of 8", s.SyncCommitteeSize)
	}
	return nil
}

type ForkName string

const (
	Phase0    ForkName = "phase0"
	Altair    ForkName = "altair"
	Bellatrix ForkName = "bellatrix"
	Capella   ForkName = "capella"
	Deneb     ForkName = "deneb"
	Electra   ForkName = "electra"
	Fulu      ForkName = "fulu"
)

type Fork struct {
	Name    ForkName
	Version [4]byte
	Epoch   uint64
}

// Network describes one beacon chain: its preset, its fork schedule in
// activation order, and the genesis validators root mixed into signing
// domains.
type Network struct {
	Name                  string
	Spec                  SpecSettings
	GenesisValidatorsRoot common.Hash
	Forks                 []Fork
	// Networks whose updates must always be fully verified.
	RequireTrustless bool
}

func (n *Network) Validate() error {
	if err := n.Spec.Validate(); err != nil {
		return fmt.Errorf("network %s: %w", n.Name, err)
	}
	if len(n.Forks) == 0 {
		return fmt.Errorf("network %s: empty fork schedule", n.Name)
	}
	if !sort.SliceIsSorted(n.Forks, func(i, j int) bool { return n.Forks[i].Epoch < n.Forks[j].Epoch }) {
		return fmt.Errorf("network %s: fork schedule is not ordered by epoch", n.Name)
	}
	return nil
}

func (n *Network) EpochAtSlot(slot uint64) uint64 {
	return slot / n.Spec.SlotsInEpoch
}

// PeriodAtSlot is the sync committee period containing slot.
func (n *Network) PeriodAtSlot(slot uint64) uint64 {
	return slot / n.Spec.SlotsPerPeriod()
}

// ForkAt returns the fork active at epoch.
func (n *Network) ForkAt(epoch uint64) Fork {
	active := n.Forks[0]
	for _, fork := range n.Forks[1:] {
		if epoch < fork.Epoch {
			break
		}
		active = fork
	}
	return active
}

func (n *Network) ForkVersionAt(epoch uint64) [4]byte {
	return n.ForkAt(epoch).Version
}

// ExecutionBlockHashIndex is the generalized index of
// body.execution_payload.block_hash in a beacon block body of the fork active
// at slot. Deneb added fields to the payload and doubled its tree width.
func (n *Network) ExecutionBlockHashIndex(slot uint64) uint64 {
	switch n.ForkAt(n.EpochAtSlot(slot)).Name {
	case Phase0, Altair, Bellatrix, Capella:
		return merkle.Concat(merkle.GeneralizedIndex(4, 9), merkle.GeneralizedIndex(4, 12))
	default:
		return merkle.Concat(merkle.GeneralizedIndex(4, 9), merkle.GeneralizedIndex(5, 12))
	}
}

// stateTreeDepth is the depth of the BeaconState field tree at slot. Electra
// grew the state past 32 fields.
func (n *Network) stateTreeDepth(slot uint64) uint64 {
	switch n.ForkAt(n.EpochAtSlot(slot)).Name {
	case Phase0, Altair, Bellatrix, Capella, Deneb:
		return 5
	default:
		return 6
	}
}

// FinalizedRootIndex is the generalized index of
// state.finalized_checkpoint.root in a beacon state of the fork active at
// slot.
func (n *Network) FinalizedRootIndex(slot uint64) uint64 {
	return merkle.Concat(merkle.GeneralizedIndex(n.stateTreeDepth(slot), 20), merkle.GeneralizedIndex(1, 1))
}

// NextSyncCommitteeIndex is the generalized index of state.next_sync_committee
// in a beacon state of the fork active at slot.
func (n *Network) NextSyncCommitteeIndex(slot uint64) uint64 {
	return merkle.GeneralizedIndex(n.stateTreeDepth(slot), 23)
}

var (
	mainnetSpec = SpecSettings{SlotsInEpoch: 32, EpochsPerSyncCommitteePeriod: 256, SyncCommitteeSize: 512}
	minimalSpec = SpecSettings{SlotsInEpoch: 8, EpochsPerSyncCommitteePeriod: 8, SyncCommitteeSize: 32}
)

var networks = map[string]Network{
	"mainnet": {
		Name:                  "mainnet",
		Spec:                  mainnetSpec,
		GenesisValidatorsRoot: common.HexToHash("0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95"),
		Forks: []Fork{
			{Phase0, [4]byte{0x00, 0x00, 0x00, 0x00}, 0},
			{Altair, [4]byte{0x01, 0x00, 0x00, 0x00}, 74240},
			{Bellatrix, [4]byte{0x02, 0x00, 0x00, 0x00}, 144896},
			{Capella, [4]byte{0x03, 0x00, 0x00, 0x00}, 194048},
			{Deneb, [4]byte{0x04, 0x00, 0x00, 0x00}, 269568},
			{Electra, [4]byte{0x05, 0x00, 0x00, 0x00}, 364032},
			{Fulu, [4]byte{0x06, 0x00, 0x00, 0x00}, 411392},
		},
		RequireTrustless: true,
	},
	"goerli": {
		Name:                  "goerli",
		Spec:                  mainnetSpec,
		GenesisValidatorsRoot: common.HexToHash("0x043db0d9a83813551ee2f33450d23797757d430911a9320530ad8a0eabc43efb"),
		Forks: []Fork{
			{Phase0, [4]byte{0x00, 0x00, 0x10, 0x20}, 0},
			{Altair, [4]byte{0x01, 0x00, 0x10, 0x20}, 36660},
			{Bellatrix, [4]byte{0x02, 0x00, 0x10, 0x20}, 112260},
			{Capella, [4]byte{0x03, 0x00, 0x10, 0x20}, 162304},
			{Deneb, [4]byte{0x04, 0x00, 0x10, 0x20}, 231680},
		},
	},
	"sepolia": {
		Name:                  "sepolia",
		Spec:                  mainnetSpec,
		GenesisValidatorsRoot: common.HexToHash("0xd8ea171f3c94aea21ebc42a1ed61052acf3f9209c00e4efbaaddac09ed9b8078"),
		Forks: []Fork{
			{Phase0, [4]byte{0x90, 0x00, 0x00, 0x69}, 0},
			{Altair, [4]byte{0x90, 0x00, 0x00, 0x70}, 50},
			{Bellatrix, [4]byte{0x90, 0x00, 0x00, 0x71}, 100},
			{Capella, [4]byte{0x90, 0x00, 0x00, 0x72}, 56832},
			{Deneb, [4]byte{0x90, 0x00, 0x00, 0x73}, 132608},
			{Electra, [4]byte{0x90, 0x00, 0x00, 0x74}, 222464},
			{Fulu, [4]byte{0x90, 0x00, 0x00, 0x75}, 272640},
		},
	},
	// Local devnets: every fork from genesis.
	"minimal": {
		Name: "minimal",
		Spec: minimalSpec,
		Forks: []Fork{
			{Deneb, [4]byte{0x04, 0x00, 0x00, 0x01}, 0},
		},
	},
}

// Lookup returns the preset for a network name.
func Lookup(name string) (*Network, error) {
	n, ok := networks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", name)
	}
	forks := make([]Fork, len(n.Forks))
	copy(forks, n.Forks)
	n.Forks = forks
	return &n, nil
}

// Names lists the known networks.
func Names() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
