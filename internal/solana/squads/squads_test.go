package squads_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sendarcade/squadgames/internal/solana/squads"
)

func randomKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key.PublicKey()
}

// ── PDA derivation ────────────────────────────────────────────────────────────

// TestMultisigPDA_Deterministic: the same create key always derives the same
// multisig, and distinct create keys derive distinct multisigs.
func TestMultisigPDA_Deterministic(t *testing.T) {
	createKey := randomKey(t)

	a, err := squads.MultisigPDA(createKey)
	if err != nil {
		t.Fatalf("MultisigPDA: %v", err)
	}
	b, err := squads.MultisigPDA(createKey)
	if err != nil {
		t.Fatalf("MultisigPDA: %v", err)
	}
	if !a.Equals(b) {
		t.Errorf("same create key derived %s and %s", a, b)
	}

	other, err := squads.MultisigPDA(randomKey(t))
	if err != nil {
		t.Fatalf("MultisigPDA: %v", err)
	}
	if a.Equals(other) {
		t.Error("distinct create keys must derive distinct multisigs")
	}
}

func TestVaultPDA_DiffersByIndex(t *testing.T) {
	multisig, err := squads.MultisigPDA(randomKey(t))
	if err != nil {
		t.Fatalf("MultisigPDA: %v", err)
	}

	v0, err := squads.VaultPDA(multisig, 0)
	if err != nil {
		t.Fatalf("VaultPDA: %v", err)
	}
	v1, err := squads.VaultPDA(multisig, 1)
	if err != nil {
		t.Fatalf("VaultPDA: %v", err)
	}
	if v0.Equals(v1) {
		t.Error("vault index must change the derived address")
	}
	if v0.Equals(multisig) {
		t.Error("vault and multisig addresses must differ")
	}
}

func TestProgramConfigPDA_Stable(t *testing.T) {
	a, err := squads.ProgramConfigPDA()
	if err != nil {
		t.Fatalf("ProgramConfigPDA: %v", err)
	}
	b, err := squads.ProgramConfigPDA()
	if err != nil {
		t.Fatalf("ProgramConfigPDA: %v", err)
	}
	if !a.Equals(b) {
		t.Errorf("program config PDA not stable: %s vs %s", a, b)
	}
}

// ── Program config decoding ───────────────────────────────────────────────────

func TestDecodeProgramConfig(t *testing.T) {
	authority := randomKey(t)
	treasury := randomKey(t)

	data := make([]byte, 0, 8+32+8+32)
	data = append(data, make([]byte, 8)...) // account discriminator
	data = append(data, authority.Bytes()...)
	data = binary.LittleEndian.AppendUint64(data, 12_345)
	data = append(data, treasury.Bytes()...)

	pc, err := squads.DecodeProgramConfig(data)
	if err != nil {
		t.Fatalf("DecodeProgramConfig: %v", err)
	}
	if !pc.Authority.Equals(authority) {
		t.Errorf("authority = %s, want %s", pc.Authority, authority)
	}
	if pc.MultisigCreationFee != 12_345 {
		t.Errorf("creation fee = %d, want 12345", pc.MultisigCreationFee)
	}
	if !pc.Treasury.Equals(treasury) {
		t.Errorf("treasury = %s, want %s", pc.Treasury, treasury)
	}
}

func TestDecodeProgramConfig_TooShort(t *testing.T) {
	if _, err := squads.DecodeProgramConfig([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for truncated account data")
	}
}

// ── Member assembly ───────────────────────────────────────────────────────────

// TestMembers: operator first with full capability, participants vote-only.
func TestMembers(t *testing.T) {
	operator := randomKey(t)
	participants := []solana.PublicKey{randomKey(t), randomKey(t)}

	members := squads.Members(operator, participants)
	if len(members) != 3 {
		t.Fatalf("members = %d, want 3", len(members))
	}
	if !members[0].Key.Equals(operator) {
		t.Error("operator must be the first member")
	}
	if members[0].Permissions != squads.AllPermissions() {
		t.Errorf("operator mask = %d, want full", members[0].Permissions.Mask)
	}
	for i, p := range participants {
		m := members[i+1]
		if !m.Key.Equals(p) {
			t.Errorf("member %d = %s, want %s", i+1, m.Key, p)
		}
		if m.Permissions != squads.VoteOnly() {
			t.Errorf("participant mask = %d, want vote only", m.Permissions.Mask)
		}
	}
}

func TestPermissionMasks(t *testing.T) {
	if got := squads.AllPermissions().Mask; got != 7 {
		t.Errorf("full mask = %d, want 7", got)
	}
	if got := squads.VoteOnly().Mask; got != 2 {
		t.Errorf("vote mask = %d, want 2", got)
	}
}

// ── multisigCreateV2 instruction ──────────────────────────────────────────────

func TestNewMultisigCreateV2Instruction(t *testing.T) {
	operator := randomKey(t)
	createKey := randomKey(t)
	multisig, err := squads.MultisigPDA(createKey)
	if err != nil {
		t.Fatalf("MultisigPDA: %v", err)
	}
	programConfig, err := squads.ProgramConfigPDA()
	if err != nil {
		t.Fatalf("ProgramConfigPDA: %v", err)
	}
	treasury := randomKey(t)

	ix, err := squads.NewMultisigCreateV2Instruction(squads.CreateV2Params{
		ProgramConfig:   programConfig,
		Treasury:        treasury,
		Multisig:        multisig,
		CreateKey:       createKey,
		Creator:         operator,
		ConfigAuthority: operator,
		Threshold:       2,
		Members:         squads.Members(operator, []solana.PublicKey{randomKey(t)}),
		TimeLock:        0,
	})
	if err != nil {
		t.Fatalf("NewMultisigCreateV2Instruction: %v", err)
	}

	if !ix.ProgramID().Equals(squads.ProgramID) {
		t.Errorf("program id = %s, want %s", ix.ProgramID(), squads.ProgramID)
	}

	accounts := ix.Accounts()
	if len(accounts) != 6 {
		t.Fatalf("accounts = %d, want 6", len(accounts))
	}
	// Account order per the program: config, treasury, multisig, create key,
	// creator, system program.
	if !accounts[0].PublicKey.Equals(programConfig) || accounts[0].IsSigner || accounts[0].IsWritable {
		t.Errorf("program config meta = %+v", accounts[0])
	}
	if !accounts[1].PublicKey.Equals(treasury) || !accounts[1].IsWritable {
		t.Errorf("treasury meta = %+v", accounts[1])
	}
	if !accounts[2].PublicKey.Equals(multisig) || !accounts[2].IsWritable {
		t.Errorf("multisig meta = %+v", accounts[2])
	}
	if !accounts[3].PublicKey.Equals(createKey) || !accounts[3].IsSigner {
		t.Errorf("create key meta = %+v", accounts[3])
	}
	if !accounts[4].PublicKey.Equals(operator) || !accounts[4].IsSigner || !accounts[4].IsWritable {
		t.Errorf("creator meta = %+v", accounts[4])
	}
	if !accounts[5].PublicKey.Equals(solana.SystemProgramID) {
		t.Errorf("system program meta = %+v", accounts[5])
	}

	data, err := ix.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	sum := sha256.Sum256([]byte("global:multisig_create_v2"))
	if !bytes.HasPrefix(data, sum[:8]) {
		t.Errorf("data does not start with the multisig_create_v2 discriminator: %x", data[:8])
	}
	// 8-byte discriminator + optional config authority (1+32) + threshold (2)
	// is the minimum prefix before the member vector.
	if len(data) < 8+33+2 {
		t.Errorf("data length = %d, suspiciously short", len(data))
	}
}
