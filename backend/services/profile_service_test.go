package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shelfcontrol/backend/models"
)

func newProfileFixture() (*ProfileService, *fakeProfiles, *memoryBucket) {
	profiles := &fakeProfiles{
		profiles: map[string]*models.Profile{
			adaID: {ID: adaID, Username: str("ada"), FirstName: str("Ada"), AvatarURL: str("old.png")},
		},
		taken: map[string]bool{"bob": true},
	}
	bucket := newMemoryBucket()
	svc := NewProfileService(profiles, bucket, fakeSigner{}, zap.NewNop())
	svc.now = func() time.Time { return time.UnixMilli(1767225600123) }
	return svc, profiles, bucket
}

func TestProfileServiceGetSignsAvatar(t *testing.T) {
	svc, _, _ := newProfileFixture()

	view, err := svc.Get(context.Background(), adaID)
	require.NoError(t, err)
	require.NotNil(t, view.AvatarSignedURL)
	assert.Equal(t, "https://cdn.test/old.png?ttl=2160h0m0s", *view.AvatarSignedURL)
}

func TestProfileServiceUpdate(t *testing.T) {
	svc, profiles, _ := newProfileFixture()
	ctx := context.Background()

	view, err := svc.Update(ctx, adaID, ProfileUpdate{FirstName: "Augusta", LastName: "  ", Username: ""})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", *view.FirstName)
	assert.Nil(t, profiles.profiles[adaID].LastName)
	assert.Nil(t, profiles.profiles[adaID].Username)

	_, err = svc.Update(ctx, adaID, ProfileUpdate{Username: "bob"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestValidateAvatar(t *testing.T) {
	assert.NoError(t, ValidateAvatar(1024, "image/png"))
	assert.NoError(t, ValidateAvatar(MaxAvatarSize, "image/jpeg"))
	assert.ErrorIs(t, ValidateAvatar(MaxAvatarSize+1, "image/png"), ErrAvatarTooLarge)
	assert.ErrorIs(t, ValidateAvatar(10, "application/pdf"), ErrAvatarNotImage)
}

func TestAvatarKey(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	assert.Equal(t, adaID+"-1767225600123.png", AvatarKey(adaID, "Me.PNG", "image/png", now))
	assert.Equal(t, adaID+"-1767225600123.webp", AvatarKey(adaID, "avatar", "image/webp", now))
	assert.Equal(t, adaID+"-1767225600123.svg", AvatarKey(adaID, "", "image/svg+xml", now))
	assert.Equal(t, adaID+"-1767225600123.img", AvatarKey(adaID, "x.$$", "image/", now))
}

func TestProfileServiceUploadAvatarReplacesOld(t *testing.T) {
	svc, profiles, bucket := newProfileFixture()
	bucket.objects["old.png"] = "old"

	view, err := svc.UploadAvatar(context.Background(), adaID, Avatar{
		Filename:    "new.jpg",
		ContentType: "image/jpeg",
		Size:        3,
		Body:        strings.NewReader("new"),
	})
	require.NoError(t, err)

	key := adaID + "-1767225600123.jpg"
	assert.Equal(t, key, *profiles.profiles[adaID].AvatarURL)
	assert.Equal(t, "new", bucket.objects[key])
	assert.NotContains(t, bucket.objects, "old.png")
	assert.Contains(t, *view.AvatarSignedURL, key)

	_, err = svc.UploadAvatar(context.Background(), adaID, Avatar{Filename: "doc.pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf")})
	assert.ErrorIs(t, err, ErrAvatarNotImage)
}

func TestProfileServiceRemoveAvatar(t *testing.T) {
	svc, profiles, bucket := newProfileFixture()
	bucket.objects["old.png"] = "old"

	require.NoError(t, svc.RemoveAvatar(context.Background(), adaID))
	assert.Nil(t, profiles.profiles[adaID].AvatarURL)
	assert.Equal(t, []string{"old.png"}, bucket.removed)
}

type fakeWaitlist struct {
	entries []models.WaitlistEntry
}

func (f *fakeWaitlist) Add(_ context.Context, entry *models.WaitlistEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func TestWaitlistJoin(t *testing.T) {
	store := &fakeWaitlist{}
	svc := NewWaitlistService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Join(ctx, WaitlistSignup{Email: " Reader@Example.com ", BookCount: "20+", Challenge: " juggling ARCs "}))
	require.Len(t, store.entries, 1)
	assert.Equal(t, "reader@example.com", store.entries[0].Email)
	assert.Equal(t, "juggling ARCs", store.entries[0].Challenge)

	require.NoError(t, svc.Join(ctx, WaitlistSignup{Email: "a@b.co"}))
	assert.ErrorIs(t, svc.Join(ctx, WaitlistSignup{Email: "not-an-email"}), ErrWaitlistEmail)
	assert.ErrorIs(t, svc.Join(ctx, WaitlistSignup{Email: "a@b.co", BookCount: "1000"}), ErrWaitlistBookCount)
}
