package enums

// AddressDefault names which default flag an address can hold.
type AddressDefault string

const (
	AddressDefaultShip AddressDefault = "ship"
	AddressDefaultBill AddressDefault = "bill"
)

var addressDefaults = []AddressDefault{AddressDefaultShip, AddressDefaultBill}

func (d AddressDefault) String() string { return string(d) }

func (d AddressDefault) IsValid() bool { return member(addressDefaults, d) }

func ParseAddressDefault(value string) (AddressDefault, error) {
	return parse(addressDefaults, value, "address default")
}
