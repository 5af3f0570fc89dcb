package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct runs validator tags on any tagged struct (Config,
// TransferRequest).
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}

// ValidateRecipient checks that an address is a well-formed hex chain address.
func ValidateRecipient(address string) error {
	if address == "" {
		return fmt.Errorf("recipient address cannot be empty")
	}

	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid recipient address: %s", address)
	}

	return nil
}

// ChecksumAddress returns the EIP-55 checksummed form of a hex address.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
