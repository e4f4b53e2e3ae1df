package filing

import (
	"fmt"
	"strings"
)

// Type is a form code accepted by the EDGAR company browse interface.
// The zero value is not a valid filing type.
type Type int

const (
	Type1A Type = iota + 1
	Type1E
	Type1K
	Type1N
	Type1SA
	Type1U
	Type1Z
	Type10
	Type10D
	Type10K
	Type10M
	Type10Q
	Type11K
	Type12B25
	Type13F
	Type13H
	Type144
	Type15
	Type15F
	Type17H
	Type18
	Type18K
	Type19B4
	Type19B4E
	Type19B7
	Type2E
	Type20F
	Type24F2
	Type25
	Type3
	Type4
	Type40F
	Type5
	Type6K
	Type7M
	Type8A
	Type8K
	Type8M
	Type9M
	TypeABS
	TypeABS15G
	TypeABSEE
	TypeADV
	TypeADVE
	TypeADVH
	TypeADVNR
	TypeADVW
	TypeATS
	TypeATSN
	TypeATSR
	TypeBD
	TypeBDN
	TypeBDW
	TypeC
	TypeCA1
	TypeCB
	TypeCFPORTAL
	TypeCRS
	TypeCUSTODY
	TypeD
	TypeF1
	TypeF10
	TypeF3
	TypeF4
	TypeF6
	TypeF7
	TypeF8
	TypeF80
	TypeFN
	TypeFX
	TypeID
	TypeMA
	TypeMAI
	TypeMANR
	TypeMAW
	TypeMSD
	TypeMSDW
	TypeN14
	TypeN17D1
	TypeN17F1
	TypeN17F2
	TypeN18F1
	TypeN1A
	TypeN2
	TypeN23C3
	TypeN27D1
	TypeN3
	TypeN4
	TypeN5
	TypeN54A
	TypeN54C
	TypeN6
	TypeN6EI1
	TypeN6F
	TypeN8A
	TypeN8B2
	TypeN8B4
	TypeN8F
	TypeNCEN
	TypeNCR
	TypeNCSR
	TypeNMFP
	TypeNPORT
	TypeNPX
	TypeNQ
	TypeNRN
	TypeNRSRO
	TypePF
	TypePILOT
	TypeR31
	TypeS1
	TypeS11
	TypeS20
	TypeS3
	TypeS4
	TypeS6
	TypeS8
	TypeSBSE
	TypeSBSEA
	TypeSBSEBD
	TypeSBSEC
	TypeSBSEW
	TypeSCI
	TypeSD
	TypeSDR
	TypeSE
	TypeSF1
	TypeSF3
	TypeSIP
	TypeT1
	TypeT2
	TypeT3
	TypeT4
	TypeT6
	TypeTA1
	TypeTA2
	TypeTAW
	TypeTCR
	TypeTH
	TypeWBAPP
	TypeX17A19
	TypeX17A5
	TypeX17F1A
)

// DefaultType is used by query builders that were not given a filing type.
const DefaultType = Type1U

// canonical spelling as the EDGAR query interface expects it
var typeNames = [...]string{
	Type1A:       "1-A",
	Type1E:       "1-E",
	Type1K:       "1-K",
	Type1N:       "1-N",
	Type1SA:      "1-SA",
	Type1U:       "1-U",
	Type1Z:       "1-Z",
	Type10:       "10",
	Type10D:      "10-D",
	Type10K:      "10-K",
	Type10M:      "10-M",
	Type10Q:      "10-Q",
	Type11K:      "11-K",
	Type12B25:    "12B-25",
	Type13F:      "13F",
	Type13H:      "13H",
	Type144:      "144",
	Type15:       "15",
	Type15F:      "15F",
	Type17H:      "17-H",
	Type18:       "18",
	Type18K:      "18-K",
	Type19B4:     "19b-4",
	Type19B4E:    "19b-4(E)",
	Type19B7:     "19b-7",
	Type2E:       "2-E",
	Type20F:      "20-F",
	Type24F2:     "24F-2",
	Type25:       "25",
	Type3:        "3",
	Type4:        "4",
	Type40F:      "40-F",
	Type5:        "5",
	Type6K:       "6-K",
	Type7M:       "7-M",
	Type8A:       "8-A",
	Type8K:       "8-K",
	Type8M:       "8-M",
	Type9M:       "9-M",
	TypeABS:      "ABS",
	TypeABS15G:   "ABS-15G",
	TypeABSEE:    "ABS-EE",
	TypeADV:      "ADV",
	TypeADVE:     "ADV-E",
	TypeADVH:     "ADV-H",
	TypeADVNR:    "ADV-NR",
	TypeADVW:     "ADV-W",
	TypeATS:      "ATS",
	TypeATSN:     "ATS-N",
	TypeATSR:     "ATS-R",
	TypeBD:       "BD",
	TypeBDN:      "BD-N",
	TypeBDW:      "BDW",
	TypeC:        "C",
	TypeCA1:      "CA-1",
	TypeCB:       "CB",
	TypeCFPORTAL: "CFPORTAL",
	TypeCRS:      "CRS",
	TypeCUSTODY:  "CUSTODY",
	TypeD:        "D",
	TypeF1:       "F-1",
	TypeF10:      "F-10",
	TypeF3:       "F-3",
	TypeF4:       "F-4",
	TypeF6:       "F-6",
	TypeF7:       "F-7",
	TypeF8:       "F-8",
	TypeF80:      "F-80",
	TypeFN:       "F-N",
	TypeFX:       "F-X",
	TypeID:       "ID",
	TypeMA:       "MA",
	TypeMAI:      "MA-I",
	TypeMANR:     "MA-NR",
	TypeMAW:      "MA-W",
	TypeMSD:      "MSD",
	TypeMSDW:     "MSDW",
	TypeN14:      "N-14",
	TypeN17D1:    "N-17D-1",
	TypeN17F1:    "N-17F-1",
	TypeN17F2:    "N-17F-2",
	TypeN18F1:    "N-18F-1",
	TypeN1A:      "N-1A",
	TypeN2:       "N-2",
	TypeN23C3:    "N-23C-3",
	TypeN27D1:    "N-27D-1",
	TypeN3:       "N-3",
	TypeN4:       "N-4",
	TypeN5:       "N-5",
	TypeN54A:     "N-54A",
	TypeN54C:     "N-54C",
	TypeN6:       "N-6",
	TypeN6EI1:    "N-6EI-1",
	TypeN6F:      "N-6F",
	TypeN8A:      "N-8A",
	TypeN8B2:     "N-8B-2",
	TypeN8B4:     "N-8B-4",
	TypeN8F:      "N-8F",
	TypeNCEN:     "N-CEN",
	TypeNCR:      "N-CR",
	TypeNCSR:     "N-CSR",
	TypeNMFP:     "N-MFP",
	TypeNPORT:    "N-PORT",
	TypeNPX:      "N-PX",
	TypeNQ:       "N-Q",
	TypeNRN:      "N-RN",
	TypeNRSRO:    "NRSRO",
	TypePF:       "PF",
	TypePILOT:    "PILOT",
	TypeR31:      "R31",
	TypeS1:       "S-1",
	TypeS11:      "S-11",
	TypeS20:      "S-20",
	TypeS3:       "S-3",
	TypeS4:       "S-4",
	TypeS6:       "S-6",
	TypeS8:       "S-8",
	TypeSBSE:     "SBSE",
	TypeSBSEA:    "SBSE-A",
	TypeSBSEBD:   "SBSE-BD",
	TypeSBSEC:    "SBSE-C",
	TypeSBSEW:    "SBSE-W",
	TypeSCI:      "SCI",
	TypeSD:       "SD",
	TypeSDR:      "SDR",
	TypeSE:       "SE",
	TypeSF1:      "SF-1",
	TypeSF3:      "SF-3",
	TypeSIP:      "SIP",
	TypeT1:       "T-1",
	TypeT2:       "T-2",
	TypeT3:       "T-3",
	TypeT4:       "T-4",
	TypeT6:       "T-6",
	TypeTA1:      "TA-1",
	TypeTA2:      "TA-2",
	TypeTAW:      "TA-W",
	TypeTCR:      "TCR",
	TypeTH:       "TH",
	TypeWBAPP:    "WB-APP",
	TypeX17A19:   "X-17A-19",
	TypeX17A5:    "X-17A-5",
	TypeX17F1A:   "X-17F-1A",
}

// lookup keys are upper cased, so "19b-4" is found as "19B-4"
var typeIndex = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for i, name := range typeNames {
		if name == "" {
			continue
		}
		m[strings.ToUpper(name)] = Type(i)
	}
	return m
}()

// ParseType maps a form code to its Type ignoring case.
func ParseType(s string) (Type, error) {
	t, ok := typeIndex[strings.ToUpper(s)]
	if !ok {
		return 0, &UnknownError{Kind: ErrUnknownFilingType, Value: s}
	}
	return t, nil
}

// Types returns every known filing type in table order.
func Types() []Type {
	types := make([]Type, 0, len(typeNames)-1)
	for i := range typeNames {
		if typeNames[i] != "" {
			types = append(types, Type(i))
		}
	}
	return types
}

func (t Type) Valid() bool {
	return t > 0 && int(t) < len(typeNames)
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, &UnknownError{Kind: ErrUnknownFilingType, Value: t.String()}
	}
	return []byte(typeNames[t]), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Set and Type let a *Type be used as a command line flag.
func (t *Type) Set(s string) error {
	return t.UnmarshalText([]byte(s))
}

func (t *Type) Type() string {
	return "filingType"
}
