package apds9960

// I2C address and the register subset the driver touches. Names follow the
// datasheet.
const (
	// Addr is the fixed I2C address of the APDS-9960.
	Addr uint16 = 0x39

	regEnable  = 0x80
	regATime   = 0x81
	regControl = 0x8F
	regID      = 0x92
	regStatus  = 0x93
	regCDataL  = 0x94
	regRDataL  = 0x96
	regGDataL  = 0x98
	regBDataL  = 0x9A
)

// ENABLE register bits.
const (
	enablePON = 1 << 0
	enableAEN = 1 << 1
)

// STATUS register bits.
const (
	statusAVALID = 1 << 0
)

// Chip IDs the driver accepts (the -9960 ships with either).
const (
	chipID1 = 0xAB
	chipID2 = 0x9C
)

// Power-on defaults the driver programs.
const (
	// defaultATime = 256-37 cycles: ~103ms integration, 37888 max count.
	defaultATime = 219
	// defaultAGain selects 4x analog gain (AGAIN bits of CONTROL).
	defaultAGain = 0x01
)
