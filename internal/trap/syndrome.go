// Package trap classifies and dispatches exceptions, spec §3/§4.8
// (component C8), grounded on the original kern/src/traps.rs
// handle_exception and kern/src/traps/syndrome.rs Syndrome.
package trap

// Fault taxonomizes the DFSC/IFSC field of an abort's ISS, grounded on
// the original Fault::from.
type Fault int

const (
	FaultAddressSize Fault = iota
	FaultTranslation
	FaultAccessFlag
	FaultPermission
	FaultAlignment
	FaultTLBConflict
	FaultOther
)

func decodeFault(val uint32) Fault {
	switch {
	case val <= 0b000011:
		return FaultAddressSize
	case val >= 0b000100 && val <= 0b000111:
		return FaultTranslation
	case val == 0b001001 || val == 0b001010 || val == 0b001011:
		return FaultAccessFlag
	case val == 0b001101 || val == 0b001110 || val == 0b001111:
		return FaultPermission
	case val == 0b010000 || val == 0b011000 ||
		(val >= 0b010100 && val <= 0b010111) ||
		(val >= 0b011100 && val <= 0b011111):
		return FaultAlignment
	case val == 0b110000:
		return FaultTLBConflict
	default:
		return FaultOther
	}
}

// SyndromeKind names the decoded exception class, spec §4.8 "classify
// synchronous/IRQ/FIQ/SError, decode ESR syndrome".
type SyndromeKind int

const (
	Unknown SyndromeKind = iota
	WfiWfe
	SimdFp
	IllegalExecutionState
	Svc
	Hvc
	Smc
	MsrMrsSystem
	InstructionAbort
	PCAlignmentFault
	DataAbort
	SpAlignmentFault
	TrappedFPU
	SErrorInterrupt
	Breakpoint
	Step
	Watchpoint
	Brk
	Other
)

// Syndrome is the decoded ESR_EL1 value for one synchronous exception.
type Syndrome struct {
	Kind SyndromeKind
	Imm16 uint16 // Svc/Hvc/Smc/Brk immediate
	Fault Fault  // InstructionAbort/DataAbort
	// FaultCode is the raw DFSC/IFSC status code the Fault taxonomy was
	// computed from, grounded on the original Fault::Other(u8) carrying
	// its status code as a payload; meaningful whenever Fault is set,
	// and the only way to recover the exact code when Fault == FaultOther.
	FaultCode uint8
	Level     uint8 // InstructionAbort/DataAbort
	Raw       uint32
}

const (
	escShift = 26
	escMask  = 0x3F

	issSVCImmMask  = 0xFFFF
	issBrkCmmtMask = 0xFFFF
	issFaultMask   = 0x3F
	issLevelMask   = 0x3
)

// DecodeESR converts a raw ESR_EL1 value into a Syndrome (ref D1.10.4),
// grounded on Syndrome::from(esr: u32). Only meaningful for synchronous
// exceptions — the ESR is not guaranteed valid for IRQ/FIQ/SError.
func DecodeESR(esr uint32) Syndrome {
	ec := (esr >> escShift) & escMask
	switch ec {
	case 0b000000:
		return Syndrome{Kind: Unknown, Raw: esr}
	case 0b000001:
		return Syndrome{Kind: WfiWfe, Raw: esr}
	case 0b000111:
		return Syndrome{Kind: SimdFp, Raw: esr}
	case 0b001110:
		return Syndrome{Kind: IllegalExecutionState, Raw: esr}
	case 0b010101:
		return Syndrome{Kind: Svc, Imm16: uint16(esr & issSVCImmMask), Raw: esr}
	case 0b010110:
		return Syndrome{Kind: Hvc, Imm16: uint16(esr & issSVCImmMask), Raw: esr}
	case 0b010111:
		return Syndrome{Kind: Smc, Imm16: uint16(esr & issSVCImmMask), Raw: esr}
	case 0b011000:
		return Syndrome{Kind: MsrMrsSystem, Raw: esr}
	case 0b100000, 0b100001:
		code := esr & issFaultMask
		return Syndrome{Kind: InstructionAbort, Fault: decodeFault(code), FaultCode: uint8(code), Level: uint8(esr & issLevelMask), Raw: esr}
	case 0b100010:
		return Syndrome{Kind: PCAlignmentFault, Raw: esr}
	case 0b100100, 0b100101:
		code := esr & issFaultMask
		return Syndrome{Kind: DataAbort, Fault: decodeFault(code), FaultCode: uint8(code), Level: uint8(esr & issLevelMask), Raw: esr}
	case 0b100110:
		return Syndrome{Kind: SpAlignmentFault, Raw: esr}
	case 0b101100:
		return Syndrome{Kind: TrappedFPU, Raw: esr}
	case 0b101111:
		return Syndrome{Kind: SErrorInterrupt, Raw: esr}
	case 0b110000, 0b110001:
		return Syndrome{Kind: Breakpoint, Raw: esr}
	case 0b110010, 0b110011:
		return Syndrome{Kind: Step, Raw: esr}
	case 0b110100, 0b110101:
		return Syndrome{Kind: Watchpoint, Raw: esr}
	case 0b111100:
		return Syndrome{Kind: Brk, Imm16: uint16(esr & issBrkCmmtMask), Raw: esr}
	default:
		return Syndrome{Kind: Other, Raw: esr}
	}
}
