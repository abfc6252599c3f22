package invoke

import (
	"github.com/Esscrypt/peanutbutterandjam-sub002/codec"
	"github.com/Esscrypt/peanutbutterandjam-sub002/hostcall"
	"github.com/Esscrypt/peanutbutterandjam-sub002/pvm"
)

// Size and gas caps for the authorization invocation.
const (
	MaxAuthCodeSize = 64_000
	AuthGasLimit    = 50_000_000
)

// AuthResultKind is Is-Authorized's outer result classification.
type AuthResultKind int

const (
	AuthOK AuthResultKind = iota
	AuthBad
	AuthBig
)

// AuthOutcome is Ψ_I's return value: (blob | BAD | BIG, gas_consumed).
type AuthOutcome struct {
	Kind        AuthResultKind
	Blob        []byte
	GasConsumed uint64
}

// unit is Is-Authorized's context type: it carries no world state.
type unit struct{}

// IsAuthorized implements the Ψ_I invocation. The caller resolves
// authCodeBlob itself (a nil slice means "absent"); taking the blob as an
// explicit parameter keeps the auth-code identity decoupled from any one
// work-package field.
func IsAuthorized(authCodeBlob []byte, coreIndex uint16) AuthOutcome {
	if authCodeBlob == nil {
		return AuthOutcome{Kind: AuthBad}
	}
	if len(authCodeBlob) > MaxAuthCodeSize {
		return AuthOutcome{Kind: AuthBig}
	}

	argument := codec.EncodeU16LE(coreIndex)
	res := PsiM[unit](authCodeBlob, 0, AuthGasLimit, argument, iazMutator, unit{}, pvm.PerInstructionGasModel{}, pvm.DefaultRegistry())

	switch res.Kind {
	case ResultPanic:
		return AuthOutcome{Kind: AuthBad, GasConsumed: res.GasConsumed}
	case ResultOOG:
		return AuthOutcome{Kind: AuthBig, GasConsumed: res.GasConsumed}
	default:
		return AuthOutcome{Kind: AuthOK, Blob: res.Blob, GasConsumed: res.GasConsumed}
	}
}

// iazMutator supports only the "gas" and "fetch" host calls;
// any other host-call id writes WHAT into r7 and continues, since an
// unrecognized call is a domain error, not a VM error.
func iazMutator(hostCallID uint64, core *pvm.Core, ctx unit) (pvm.MutatorOutcome, unit) {
	switch hostCallID {
	case hostcallGas:
		core.Regs.Set(hostcall.ReturnCodeReg, core.Gas)
	case hostcallFetch:
		handleFetch(core, nil)
	default:
		core.Regs.Set(hostcall.ReturnCodeReg, hostcall.What)
	}
	return pvm.ContinueRunning(), ctx
}
