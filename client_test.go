package tuscore

import (
	"context"
	"net/http"
	"net/url"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/vitorsalgado/mocha/v3"
	"github.com/vitorsalgado/mocha/v3/expect"
	"github.com/vitorsalgado/mocha/v3/reply"

	"github.com/binarycraft/tuscore/cache"
	"github.com/binarycraft/tuscore/transport"
)

func tReply(startReply *reply.StdReply) *reply.StdReply {
	return startReply.Header("Tus-Resumable", "1.0.0")
}

func tRequest(method, path string) *mocha.MockBuilder {
	return mocha.Request().URL(expect.URLPath(path)).Method(method)
}

func optionsMock() *mocha.MockBuilder {
	return tRequest(http.MethodOptions, "/files").
		Reply(tReply(reply.NoContent()).Header("Tus-Extension", "creation,termination,concatenation"))
}

var _ = Describe("Client", func() {
	var srvMock *mocha.Mocha
	var testClient *Client
	var tmpFile *os.File

	BeforeEach(func() {
		srvMock = mocha.New(GinkgoT())
		srvMock.Start()
		baseURL, _ := url.Parse(srvMock.URL())
		tr := transport.NewHTTP(http.DefaultClient, baseURL)
		testClient = NewClient(tr, "/files", cache.NewMemory(16))

		var err error
		tmpFile, err = os.CreateTemp("", "tuscore-client-test-*")
		Ω(err).Should(Succeed())
		_, err = tmpFile.WriteString("0123456789abcdef")
		Ω(err).Should(Succeed())
	})

	AfterEach(func() {
		_ = os.Remove(tmpFile.Name())
		if srvMock != nil {
			Ω(srvMock.Close()).Should(Succeed())
		}
	})

	Context("NewClient", func() {
		It("starts in StateInit with the sha256 default algorithm", func() {
			Ω(testClient.State()).Should(Equal(StateInit))
			Ω(testClient.algorithm).Should(BeEquivalentTo("sha256"))
		})
	})

	Context("SetFile", func() {
		It("derives length and filename from the local file", func() {
			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			Ω(testClient.upload.Length).Should(Equal(int64(16)))
			Ω(testClient.upload.Filename).ShouldNot(BeEmpty())
		})
		It("rejects a nonexistent path", func() {
			Ω(testClient.SetFile("/does/not/exist", "")).Should(MatchError(ErrConfigurationError))
		})
	})

	Context("SetAlgorithm", func() {
		It("rejects an unknown algorithm", func() {
			Ω(testClient.SetAlgorithm("not-a-real-algo")).Should(MatchError(ErrConfigurationError))
		})
	})

	Context("Seek", func() {
		It("mints a partial key on first call", func() {
			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("parent-key")
			Ω(testClient.Seek(4)).Should(Succeed())
			Ω(testClient.upload.ClientKey).Should(HavePrefix("parent-key" + PartialKeySeparator))
			Ω(testClient.upload.Partial).Should(BeTrue())
			Ω(testClient.upload.Offset).Should(Equal(int64(4)))
		})
		It("rejects an out-of-range offset", func() {
			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("k")
			Ω(testClient.Seek(1000)).Should(MatchError(ErrConfigurationError))
		})
	})

	Context("Create", func() {
		It("adopts the server key from Location", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodPost, "/files").
				Header("Upload-Length", expect.ToEqual("16")).
				Reply(tReply(reply.Created()).Header("Location", "/files/abc123")))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")

			key, err := testClient.Create(context.Background())
			Ω(err).Should(Succeed())
			Ω(key).Should(Equal("abc123"))
			Ω(testClient.State()).Should(Equal(StateStreaming))
		})

		It("fails when the server omits Location", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodPost, "/files").Reply(tReply(reply.Created())))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")

			_, err := testClient.Create(context.Background())
			Ω(err).Should(MatchError(ErrResourceCreateError))
			Ω(testClient.State()).Should(Equal(StateFailed))
		})
	})

	Context("Header", func() {
		It("never lets a caller-supplied header override a protocol-defined one", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodPost, "/files").
				Header("Upload-Length", expect.ToEqual("16")).
				Header("X-Request-Id", expect.ToEqual("req-1")).
				Reply(tReply(reply.Created()).Header("Location", "/files/abc123")))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")
			testClient.Header = http.Header{
				"Upload-Length": []string{"999"},
				"X-Request-Id":  []string{"req-1"},
			}

			_, err := testClient.Create(context.Background())
			Ω(err).Should(Succeed())
		})

		It("reaches the capability-discovery OPTIONS request too", func() {
			srvMock.AddMocks(tRequest(http.MethodOptions, "/files").
				Header("X-Request-Id", expect.ToEqual("req-1")).
				Reply(tReply(reply.NoContent()).Header("Tus-Extension", "creation")))
			srvMock.AddMocks(tRequest(http.MethodPost, "/files").
				Reply(tReply(reply.Created()).Header("Location", "/files/abc123")))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")
			testClient.Header = http.Header{"X-Request-Id": []string{"req-1"}}

			_, err := testClient.Create(context.Background())
			Ω(err).Should(Succeed())
		})
	})

	Context("Upload", func() {
		It("streams a fresh upload to completion in one chunk", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodHead, "/files/abc123").
				Reply(reply.Status(http.StatusNotFound)))
			srvMock.AddMocks(tRequest(http.MethodPost, "/files").
				Reply(tReply(reply.Created()).Header("Location", "/files/abc123")))
			srvMock.AddMocks(tRequest(http.MethodPatch, "/files/abc123").
				Header("Upload-Offset", expect.ToEqual("0")).
				Body(expect.ToEqual([]byte("0123456789abcdef"))).
				Reply(tReply(reply.NoContent()).Header("Upload-Offset", "16")))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")

			offset, err := testClient.Upload(context.Background(), -1)
			Ω(err).Should(Succeed())
			Ω(offset).Should(Equal(int64(16)))
			Ω(testClient.State()).Should(Equal(StateDone))
		})

		It("resumes from the HEAD-reported offset rather than a stale cached one", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodHead, "/files/abc123").
				Reply(tReply(reply.OK()).Header("Upload-Offset", "10"))) // HEAD is still authoritative (OQ-2)
			srvMock.AddMocks(tRequest(http.MethodPatch, "/files/abc123").
				Header("Upload-Offset", expect.ToEqual("10")).
				Body(expect.ToEqual([]byte("abcdef"))).
				Reply(tReply(reply.NoContent()).Header("Upload-Offset", "16")))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")
			_ = testClient.cache.Put("abc123", cache.Record{Offset: 5, ServerKey: "abc123"})

			offset, err := testClient.Upload(context.Background(), -1)
			Ω(err).Should(Succeed())
			Ω(offset).Should(Equal(int64(16)))
		})

		It("surfaces ErrCorruptUpload on 416", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodHead, "/files/abc123").
				Reply(tReply(reply.OK()).Header("Upload-Offset", "0")))
			srvMock.AddMocks(tRequest(http.MethodPatch, "/files/abc123").
				Reply(reply.Status(http.StatusRequestedRangeNotSatisfiable)))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")

			_, err := testClient.Upload(context.Background(), -1)
			Ω(err).Should(MatchError(ErrCorruptUpload))
			Ω(testClient.State()).Should(Equal(StateFailed))
		})

		It("sends exactly one empty PATCH when budget is zero", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodHead, "/files/abc123").
				Reply(tReply(reply.OK()).Header("Upload-Offset", "0")))
			srvMock.AddMocks(tRequest(http.MethodPatch, "/files/abc123").
				Header("Content-Length", expect.ToEqual("0")).
				Reply(tReply(reply.NoContent()).Header("Upload-Offset", "0")))

			Ω(testClient.SetFile(tmpFile.Name(), "")).Should(Succeed())
			testClient.SetKey("abc123")

			offset, err := testClient.Upload(context.Background(), 0)
			Ω(err).Should(Succeed())
			Ω(offset).Should(Equal(int64(0)))
		})
	})

	Context("Delete", func() {
		It("reports ErrNotFound for a gone resource and still drops the cache entry", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodDelete, "/files/abc123").
				Reply(reply.Status(http.StatusGone)))

			_ = testClient.cache.Put("abc123", cache.Record{Offset: 4})
			err := testClient.Delete(context.Background(), "abc123")
			Ω(err).Should(MatchError(ErrNotFound))

			_, getErr := testClient.cache.Get("abc123")
			Ω(getErr).Should(MatchError(cache.ErrNotFound))
		})

		It("succeeds on 204", func() {
			srvMock.AddMocks(optionsMock())
			srvMock.AddMocks(tRequest(http.MethodDelete, "/files/abc123").
				Reply(reply.NoContent()))

			Ω(testClient.Delete(context.Background(), "abc123")).Should(Succeed())
		})
	})
})
