package checksum_test

import (
	"crypto/sha256"
	"encoding/base64"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/binarycraft/tuscore/checksum"
)

var _ = Describe("DigestFile", func() {
	var path string

	BeforeEach(func() {
		f, err := os.CreateTemp("", "tuscore-digest-test-*")
		Ω(err).Should(Succeed())
		defer f.Close()
		_, err = f.WriteString("the quick brown fox jumps over the lazy dog")
		Ω(err).Should(Succeed())
		path = f.Name()
	})

	AfterEach(func() {
		_ = os.Remove(path)
	})

	It("matches a direct sha256 digest of the same content", func() {
		sum := sha256.Sum256([]byte("the quick brown fox jumps over the lazy dog"))
		want := base64.StdEncoding.EncodeToString(sum[:])

		got, err := checksum.DigestFile(path, checksum.SHA256)
		Ω(err).Should(Succeed())
		Ω(got).Should(Equal(want))
	})

	It("rejects an unsupported algorithm", func() {
		_, err := checksum.DigestFile(path, "not-an-algo")
		Ω(err).Should(MatchError(checksum.ErrUnsupportedAlgorithm))
	})

	It("fails for a missing file", func() {
		_, err := checksum.DigestFile("/does/not/exist", checksum.SHA256)
		Ω(err).ShouldNot(Succeed())
	})
})

var _ = Describe("DigestBytes", func() {
	It("matches a direct sha256 digest", func() {
		sum := sha256.Sum256([]byte("hello"))
		want := base64.StdEncoding.EncodeToString(sum[:])

		got, err := checksum.DigestBytes([]byte("hello"), checksum.SHA256)
		Ω(err).Should(Succeed())
		Ω(got).Should(Equal(want))
	})

	It("rejects an unsupported algorithm", func() {
		_, err := checksum.DigestBytes([]byte("hello"), "not-an-algo")
		Ω(err).Should(MatchError(checksum.ErrUnsupportedAlgorithm))
	})
})
