package call

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// MaxDisambiguator bounds the random number appended to participant identities.
// Identities are best-effort unique; collisions are not checked.
const MaxDisambiguator = 10_000

const alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomDisplayName returns two capitalized first names, e.g. "Ada Grace".
func RandomDisplayName() string {
	return gofakeit.FirstName() + " " + gofakeit.FirstName()
}

// Identity derives a participant identity from a display name: lowercased,
// whitespace runs collapsed to "_", then "_<n>".
func Identity(displayName string, n int) string {
	base := strings.Join(strings.Fields(strings.ToLower(displayName)), "_")
	return fmt.Sprintf("%s_%d", base, n)
}

// NewIdentity is Identity with a random disambiguator in [0, MaxDisambiguator).
func NewIdentity(displayName string) string {
	return Identity(displayName, rand.IntN(MaxDisambiguator))
}

// RandomSuffix returns a 6 character alphanumeric suffix for repeated inbound tests.
func RandomSuffix() string {
	return randomString(6)
}

// RandomAdvancedRoomName returns "adv_" followed by 8 alphanumerics.
func RandomAdvancedRoomName() string {
	return "adv_" + randomString(8)
}

func randomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphanumerics[rand.IntN(len(alphanumerics))])
	}
	return b.String()
}
