package radix_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRadix(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Radix Suite")
}
