package diagnostics

import "strings"

// NominalModel holds the factory ratings of a pack model.
type NominalModel struct {
	Capacity       string `json:"capacity"`
	Cells          string `json:"cells"`
	Config         string `json:"config"`
	NominalVoltage string `json:"nominal_voltage"`
}

var nominalModels = map[string]NominalModel{
	"BL1815":  {Capacity: "1.5Ah", Cells: "5x 18650", Config: "5S1P", NominalVoltage: "18V"},
	"BL1815N": {Capacity: "1.5Ah", Cells: "5x 18650", Config: "5S1P", NominalVoltage: "18V"},
	"BL1820":  {Capacity: "2.0Ah", Cells: "5x 18650", Config: "5S1P", NominalVoltage: "18V"},
	"BL1830":  {Capacity: "3.0Ah", Cells: "10x 18650", Config: "5S2P", NominalVoltage: "18V"},
	"BL1840":  {Capacity: "4.0Ah", Cells: "10x 18650", Config: "5S2P", NominalVoltage: "18V"},
	"BL1850":  {Capacity: "5.0Ah", Cells: "10x 18650", Config: "5S2P", NominalVoltage: "18V"},
	"BL1850B": {Capacity: "5.0Ah", Cells: "10x 18650", Config: "5S2P", NominalVoltage: "18V"},
	"BL1860B": {Capacity: "6.0Ah", Cells: "10x 18650", Config: "5S2P", NominalVoltage: "18V"},
	"BL1415":  {Capacity: "1.5Ah", Cells: "4x 18650", Config: "4S1P", NominalVoltage: "14.4V"},
	"BL1430":  {Capacity: "3.0Ah", Cells: "8x 18650", Config: "4S2P", NominalVoltage: "14.4V"},
	"BL1440":  {Capacity: "4.0Ah", Cells: "8x 18650", Config: "4S2P", NominalVoltage: "14.4V"},
	"BL1450":  {Capacity: "5.0Ah", Cells: "8x 18650", Config: "4S2P", NominalVoltage: "14.4V"},
	"BL1460":  {Capacity: "6.0Ah", Cells: "8x 18650", Config: "4S2P", NominalVoltage: "14.4V"},
}

// LookupModel finds the nominal ratings of a reported model string such as
// "BL1850B/5.0Ah". Only the part before the first '/' or space is used.
func LookupModel(model string) (NominalModel, bool) {
	key, _, _ := strings.Cut(model, "/")
	key, _, _ = strings.Cut(key, " ")
	m, ok := nominalModels[strings.TrimSpace(key)]
	return m, ok
}
