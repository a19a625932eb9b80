package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"

	"github.com/linkup-app/backend/internal/storage"
)

func (s *HandlersTestSuite) searchUsers(token, query string) []string {
	w := s.request(http.MethodGet, "/api/v1/users?q="+url.QueryEscape(query), token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	s.decode(w, &resp)

	names := make([]string, 0, len(resp.Users))
	for _, u := range resp.Users {
		names = append(names, u.Username)
	}
	return names
}

func (s *HandlersTestSuite) TestSearchUsers() {
	alice := s.registerUser("alice")
	s.registerUser("alicia")
	s.registerUser("bob")

	s.ElementsMatch([]string{"alice", "alicia"}, s.searchUsers(alice, "ali"))
	s.ElementsMatch([]string{"bob"}, s.searchUsers(alice, "bob"))
	s.Empty(s.searchUsers(alice, "zzz"))
}

func (s *HandlersTestSuite) TestSearchUsersTreatsWildcardsLiterally() {
	alice := s.registerUser("alice")
	s.registerUser("bob")

	// LIKE metacharacters in the query must not match every row
	s.Empty(s.searchUsers(alice, "%"))
	s.Empty(s.searchUsers(alice, "_"))
	s.Empty(s.searchUsers(alice, `\`))

	// A username containing an underscore is still found literally
	s.registerUser("under_score")
	s.ElementsMatch([]string{"under_score"}, s.searchUsers(alice, "der_sc"))
}

func (s *HandlersTestSuite) uploadFile(path, token, contentType string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="upload.bin"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	s.Require().NoError(err)
	part.Write([]byte("not image bytes"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestUploadRejectsNonImageContentType() {
	alice := s.registerUser("alice")

	// The content type check runs before any storage call, so a real
	// uploader is safe to construct here
	uploader, err := storage.NewImageUploader(context.Background(), "us-east-1", "test-bucket", "https://cdn.test")
	s.Require().NoError(err)

	orig := s.h.uploader
	s.h.uploader = uploader
	defer func() { s.h.uploader = orig }()

	w := s.uploadFile("/api/v1/users/me/profile-picture", alice, "text/plain")
	s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestUploadUnavailableWithoutStorage() {
	alice := s.registerUser("alice")

	// The suite runs without a configured uploader
	w := s.uploadFile("/api/v1/users/me/profile-picture", alice, "image/png")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}
