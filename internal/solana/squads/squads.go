// Package squads builds the on-chain instructions and derives the program
// addresses for the Squads v4 multisig program.  Only the pieces the
// settlement pipeline needs are implemented: PDA derivation, program-config
// decoding, and the multisigCreateV2 instruction.
package squads

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is the Squads v4 multisig program.
var ProgramID = solana.MustPublicKeyFromBase58("SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf")

// PDA seeds, matching the program's account derivation.
const (
	seedPrefix        = "multisig"
	seedMultisig      = "multisig"
	seedVault         = "vault"
	seedProgramConfig = "program_config"
)

// ──────────────────────────────────────────────────────────────────────────────
// PDA derivation
// ──────────────────────────────────────────────────────────────────────────────

// MultisigPDA derives the multisig account address from its one-time creation
// key.  The same create key always derives the same multisig.
func MultisigPDA(createKey solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedPrefix), []byte(seedMultisig), createKey.Bytes()},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("squads.MultisigPDA: %w", err)
	}
	return addr, nil
}

// VaultPDA derives the vault account address for a multisig at the given
// vault index.
func VaultPDA(multisig solana.PublicKey, index uint8) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedPrefix), multisig.Bytes(), []byte(seedVault), {index}},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("squads.VaultPDA: %w", err)
	}
	return addr, nil
}

// ProgramConfigPDA derives the program-wide configuration account address.
func ProgramConfigPDA() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedPrefix), []byte(seedProgramConfig)},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("squads.ProgramConfigPDA: %w", err)
	}
	return addr, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Program config account
// ──────────────────────────────────────────────────────────────────────────────

// ProgramConfig is the on-chain program configuration.  Treasury is the
// account that collects the multisig creation fee and must be passed to
// multisigCreateV2.
type ProgramConfig struct {
	Authority           solana.PublicKey
	MultisigCreationFee uint64
	Treasury            solana.PublicKey
}

// DecodeProgramConfig parses a ProgramConfig from raw account data,
// skipping the 8-byte anchor account discriminator.
func DecodeProgramConfig(data []byte) (*ProgramConfig, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("squads.DecodeProgramConfig: account data too short (%d bytes)", len(data))
	}
	var pc ProgramConfig
	if err := bin.NewBorshDecoder(data[8:]).Decode(&pc); err != nil {
		return nil, fmt.Errorf("squads.DecodeProgramConfig: %w", err)
	}
	return &pc, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Members & permissions
// ──────────────────────────────────────────────────────────────────────────────

// Permission bits as defined by the program.
const (
	PermissionInitiate uint8 = 1 << 0
	PermissionVote     uint8 = 1 << 1
	PermissionExecute  uint8 = 1 << 2
)

// Permissions is a member's capability mask.
type Permissions struct {
	Mask uint8
}

// AllPermissions grants initiate, vote, and execute.
func AllPermissions() Permissions {
	return Permissions{Mask: PermissionInitiate | PermissionVote | PermissionExecute}
}

// VoteOnly grants only the vote capability.
func VoteOnly() Permissions {
	return Permissions{Mask: PermissionVote}
}

// Member is one authorized signer of a multisig.
type Member struct {
	Key         solana.PublicKey
	Permissions Permissions
}

// Members assembles the vault signer set: the operator first with full
// administrative capability, then every participant with voting only.
func Members(operator solana.PublicKey, participants []solana.PublicKey) []Member {
	members := make([]Member, 0, len(participants)+1)
	members = append(members, Member{Key: operator, Permissions: AllPermissions()})
	for _, p := range participants {
		members = append(members, Member{Key: p, Permissions: VoteOnly()})
	}
	return members
}

// ──────────────────────────────────────────────────────────────────────────────
// multisigCreateV2 instruction
// ──────────────────────────────────────────────────────────────────────────────

// createV2Args is the borsh-encoded argument block of multisigCreateV2,
// field order per the program IDL.
type createV2Args struct {
	ConfigAuthority *solana.PublicKey `bin:"optional"`
	Threshold       uint16
	Members         []Member
	TimeLock        uint32
	RentCollector   *solana.PublicKey `bin:"optional"`
	Memo            *string           `bin:"optional"`
}

// CreateV2Params carries everything needed to build a multisigCreateV2
// instruction.  Creator pays the creation fee and signs alongside CreateKey.
type CreateV2Params struct {
	ProgramConfig   solana.PublicKey
	Treasury        solana.PublicKey
	Multisig        solana.PublicKey
	CreateKey       solana.PublicKey
	Creator         solana.PublicKey
	ConfigAuthority solana.PublicKey
	Threshold       uint16
	Members         []Member
	TimeLock        uint32
}

// anchorDiscriminator derives the 8-byte instruction discriminator for a
// global anchor method.
func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

// NewMultisigCreateV2Instruction builds the vault formation instruction.
// The creator is set as config authority and rent collector, matching the
// operator-administered vault model.
func NewMultisigCreateV2Instruction(p CreateV2Params) (solana.Instruction, error) {
	configAuthority := p.ConfigAuthority
	rentCollector := p.Creator
	args := createV2Args{
		ConfigAuthority: &configAuthority,
		Threshold:       p.Threshold,
		Members:         p.Members,
		TimeLock:        p.TimeLock,
		RentCollector:   &rentCollector,
	}

	buf := new(bytes.Buffer)
	buf.Write(anchorDiscriminator("multisig_create_v2"))
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("squads.NewMultisigCreateV2Instruction: encode args: %w", err)
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(p.ProgramConfig, false, false),
		solana.NewAccountMeta(p.Treasury, true, false),
		solana.NewAccountMeta(p.Multisig, true, false),
		solana.NewAccountMeta(p.CreateKey, false, true),
		solana.NewAccountMeta(p.Creator, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return solana.NewInstruction(ProgramID, accounts, buf.Bytes()), nil
}
