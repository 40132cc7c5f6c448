package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	apperrors "photonotes/pkg/errors"
)

// StreamExtras are the per-photo fields requested with every stream
// page; the walker and the metadata dumps both rely on them
const StreamExtras = "description,license,date_upload,date_taken,owner_name,last_update"

// LookupUser resolves a photo or member page URL to the owner's NSID
// and username
func (c *Client) LookupUser(ctx context.Context, pageURL string) (*UserRef, error) {
	params := url.Values{}
	params.Set("url", pageURL)

	var resp UserRef
	if err := c.callJSON(ctx, methodLookupUser, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestLogin verifies the installed session by asking Flickr who we are
func (c *Client) TestLogin(ctx context.Context) (*UserRef, error) {
	var resp UserRef
	if err := c.callJSON(ctx, methodTestLogin, url.Values{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPersonInfo fetches a member's profile. The raw response body is
// returned alongside the decoded record for the metadata dump.
func (c *Client) GetPersonInfo(ctx context.Context, userID string) (*Person, json.RawMessage, error) {
	params := url.Values{}
	params.Set("user_id", userID)

	body, err := c.Call(ctx, methodPeopleInfo, params)
	if err != nil {
		return nil, nil, err
	}

	var resp personResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrorTypeParsing,
			"failed to parse flickr.people.getInfo response", err)
	}
	return &resp.Person, body, nil
}

// GetPhotos fetches one page of the owner's public photostream, newest
// first. Page numbering is 1-based.
func (c *Client) GetPhotos(ctx context.Context, userID string, page, perPage int) (*PhotoPage, error) {
	if perPage <= 0 || perPage > DefaultPageSize {
		perPage = DefaultPageSize
	}

	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("extras", StreamExtras)
	params.Set("privacy_filter", "1")

	var resp photosResponse
	if err := c.callJSON(ctx, methodPeoplePhotos, params, &resp); err != nil {
		return nil, err
	}
	return &resp.Photos, nil
}

// GetPhotoInfo fetches a photo's detail record. The secret is optional;
// passing it lets Flickr serve photos hidden from the owner's public
// stream. The raw response body is returned for the metadata dump.
func (c *Client) GetPhotoInfo(ctx context.Context, photoID, secret string) (*PhotoInfo, json.RawMessage, error) {
	params := url.Values{}
	params.Set("photo_id", photoID)
	if secret != "" {
		params.Set("secret", secret)
	}

	body, err := c.Call(ctx, methodPhotoInfo, params)
	if err != nil {
		return nil, nil, err
	}

	var resp photoInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrorTypeParsing,
			"failed to parse flickr.photos.getInfo response", err)
	}
	return &resp.Photo, body, nil
}

// GetSizes lists the available download sizes of a photo
func (c *Client) GetSizes(ctx context.Context, photoID string) ([]Size, error) {
	params := url.Values{}
	params.Set("photo_id", photoID)

	var resp sizesResponse
	if err := c.callJSON(ctx, methodPhotoSizes, params, &resp); err != nil {
		return nil, err
	}
	return resp.Sizes.Size, nil
}

// GetAllContexts lists the albums and group pools a photo appears in
func (c *Client) GetAllContexts(ctx context.Context, photoID string) (*Contexts, error) {
	params := url.Values{}
	params.Set("photo_id", photoID)

	var resp Contexts
	if err := c.callJSON(ctx, methodPhotoContexts, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLocation fetches a photo's geo record. Photos without location
// information return (nil, nil); Flickr reports those as error code 2.
func (c *Client) GetLocation(ctx context.Context, photoID string) (*Location, error) {
	params := url.Values{}
	params.Set("photo_id", photoID)

	var resp geoResponse
	if err := c.callJSON(ctx, methodGeoLocation, params, &resp); err != nil {
		var apiErr *apperrors.Error
		if errors.As(err, &apiErr) && apiErr.Code == 2 {
			return nil, nil
		}
		return nil, err
	}
	return &resp.Photo.Location, nil
}

// GetPhotosets lists the owner's albums
func (c *Client) GetPhotosets(ctx context.Context, userID string) ([]Photoset, error) {
	params := url.Values{}
	params.Set("user_id", userID)

	var resp photosetsResponse
	if err := c.callJSON(ctx, methodPhotosetsList, params, &resp); err != nil {
		return nil, err
	}
	return resp.Photosets.Photoset, nil
}

// GetGalleries lists the galleries curated by the owner
func (c *Client) GetGalleries(ctx context.Context, userID string) ([]Gallery, error) {
	params := url.Values{}
	params.Set("user_id", userID)

	var resp galleriesResponse
	if err := c.callJSON(ctx, methodGalleriesList, params, &resp); err != nil {
		return nil, err
	}
	return resp.Galleries.Gallery, nil
}
