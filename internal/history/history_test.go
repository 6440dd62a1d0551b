package history

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("History", func() {
	It("starts empty and counts increments", func() {
		h := New()
		Expect(h.Count("firefox.desktop")).To(Equal(uint64(0)))

		Expect(h.Increment("firefox.desktop")).To(Equal(uint64(1)))
		Expect(h.Increment("firefox.desktop")).To(Equal(uint64(2)))
		Expect(h.Count("firefox.desktop")).To(Equal(uint64(2)))
		Expect(h.Len()).To(Equal(1))
	})

	It("ignores empty ids", func() {
		h := FromCounts(map[string]uint64{"": 4, "foot.desktop": 1})
		Expect(h.Increment("")).To(Equal(uint64(0)))
		Expect(h.IDs()).To(Equal([]string{"foot.desktop"}))
	})

	It("treats a nil history as empty", func() {
		var h *History
		Expect(h.Count("anything")).To(Equal(uint64(0)))
	})

	It("prunes unknown ids", func() {
		h := FromCounts(map[string]uint64{"a.desktop": 1, "b.desktop": 2, "gone.desktop": 3})
		removed := h.Prune(func(id string) bool { return id != "gone.desktop" })

		Expect(removed).To(Equal(1))
		Expect(h.IDs()).To(Equal([]string{"a.desktop", "b.desktop"}))
	})

	It("returns a copy from Counts", func() {
		h := FromCounts(map[string]uint64{"a.desktop": 1})
		counts := h.Counts()
		counts["a.desktop"] = 99
		Expect(h.Count("a.desktop")).To(Equal(uint64(1)))
	})
})

func describeStore(name string, open func(dir string) (Store, error)) {
	Describe(name, func() {
		var (
			dir   string
			store Store
		)

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
			var err error
			store, err = open(dir)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		It("loads an empty history when nothing was saved", func() {
			h, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Len()).To(Equal(0))
		})

		It("round-trips an increment through a reopened store", func() {
			h, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			h.Increment("firefox.desktop")
			Expect(store.Save(h)).To(Succeed())
			Expect(store.Close()).To(Succeed())

			store, err = open(dir)
			Expect(err).NotTo(HaveOccurred())
			reloaded, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Count("firefox.desktop")).To(Equal(uint64(1)))
		})

		It("rewrites records in full on save", func() {
			Expect(store.Save(FromCounts(map[string]uint64{"a.desktop": 1, "b.desktop": 2}))).To(Succeed())
			Expect(store.Save(FromCounts(map[string]uint64{"b.desktop": 5}))).To(Succeed())

			h, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Counts()).To(Equal(map[string]uint64{"b.desktop": 5}))
		})

		It("persists a prune pass", func() {
			Expect(store.Save(FromCounts(map[string]uint64{"keep.desktop": 3, "gone.desktop": 1}))).To(Succeed())

			h, err := LoadAndPrune(store, true, func(id string) bool { return id == "keep.desktop" })
			Expect(err).NotTo(HaveOccurred())
			Expect(h.IDs()).To(Equal([]string{"keep.desktop"}))

			reloaded, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.IDs()).To(Equal([]string{"keep.desktop"}))
		})

		It("leaves records alone when pruning is disabled", func() {
			Expect(store.Save(FromCounts(map[string]uint64{"gone.desktop": 1}))).To(Succeed())

			h, err := LoadAndPrune(store, false, func(string) bool { return false })
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Count("gone.desktop")).To(Equal(uint64(1)))
		})
	})
}

var _ = Describe("Stores", func() {
	describeStore("TOML FileStore", func(dir string) (Store, error) {
		return Open("file", filepath.Join(dir, "history.toml"))
	})

	describeStore("JSON FileStore", func(dir string) (Store, error) {
		return Open("file", filepath.Join(dir, "history.json"))
	})

	describeStore("BoltStore", func(dir string) (Store, error) {
		return Open("bolt", filepath.Join(dir, "history.db"))
	})

	It("rejects unknown backends", func() {
		_, err := Open("sqlite", "/tmp/whatever")
		Expect(err).To(HaveOccurred())
	})

	It("reports a corrupt history file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "history.json")
		Expect(os.WriteFile(path, []byte("{not json"), 0644)).To(Succeed())

		_, err := NewFileStore(path).Load()
		Expect(err).To(HaveOccurred())
	})

	It("fails to save when the directory cannot be created", func() {
		dir := GinkgoT().TempDir()
		blocker := filepath.Join(dir, "file")
		Expect(os.WriteFile(blocker, []byte("x"), 0644)).To(Succeed())

		err := NewFileStore(filepath.Join(blocker, "history.toml")).Save(New())
		Expect(err).To(HaveOccurred())
	})
})
