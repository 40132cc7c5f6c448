package flickr

import (
	"strconv"
	"strings"
)

// Content unwraps Flickr's {"_content": "..."} string wrapper
type Content struct {
	Text string `json:"_content"`
}

// Number decodes Flickr numeric fields, which arrive inconsistently as
// JSON numbers or as quoted strings depending on the endpoint
type Number int64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Int returns the value as an int
func (n Number) Int() int { return int(n) }

// failEnvelope is Flickr's error response: {"stat":"fail","code":1,...}
type failEnvelope struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UserRef is the minimal user record returned by flickr.urls.lookupUser
// and flickr.test.login
type UserRef struct {
	User struct {
		ID       string  `json:"id"`
		Username Content `json:"username"`
	} `json:"user"`
}

// Person is the profile record returned by flickr.people.getInfo
type Person struct {
	ID          string  `json:"id"`
	NSID        string  `json:"nsid"`
	IsPro       Number  `json:"ispro"`
	IconServer  string  `json:"iconserver"`
	IconFarm    Number  `json:"iconfarm"`
	PathAlias   string  `json:"path_alias"`
	Username    Content `json:"username"`
	RealName    Content `json:"realname"`
	Location    Content `json:"location"`
	Description Content `json:"description"`
	PhotosURL   Content `json:"photosurl"`
	ProfileURL  Content `json:"profileurl"`
	Photos      struct {
		FirstDate      Content `json:"firstdate"`
		FirstDateTaken Content `json:"firstdatetaken"`
		Count          Number  `json:"count"`
	} `json:"photos"`
}

// personResponse wraps flickr.people.getInfo
type personResponse struct {
	Person Person `json:"person"`
}

// StreamPhoto is one row of a flickr.people.getPhotos page
type StreamPhoto struct {
	ID               string  `json:"id"`
	Owner            string  `json:"owner"`
	OwnerName        string  `json:"ownername"`
	Secret           string  `json:"secret"`
	Server           string  `json:"server"`
	Title            string  `json:"title"`
	License          string  `json:"license"`
	Description      Content `json:"description"`
	DateUpload       string  `json:"dateupload"`
	DateTaken        string  `json:"datetaken"`
	DateTakenUnknown Number  `json:"datetakenunknown"`
	LastUpdate       string  `json:"lastupdate"`
	IsPublic         Number  `json:"ispublic"`
}

// PhotoPage is one page of an owner's photostream
type PhotoPage struct {
	Page    Number        `json:"page"`
	Pages   Number        `json:"pages"`
	PerPage Number        `json:"perpage"`
	Total   Number        `json:"total"`
	Photo   []StreamPhoto `json:"photo"`
}

// photosResponse wraps flickr.people.getPhotos
type photosResponse struct {
	Photos PhotoPage `json:"photos"`
}

// PhotoInfo is the detail record returned by flickr.photos.getInfo
type PhotoInfo struct {
	ID      string `json:"id"`
	Secret  string `json:"secret"`
	Server  string `json:"server"`
	License string `json:"license"`
	Owner   struct {
		NSID       string `json:"nsid"`
		Username   string `json:"username"`
		RealName   string `json:"realname"`
		Location   string `json:"location"`
		PathAlias  string `json:"path_alias"`
		IconServer string `json:"iconserver"`
		IconFarm   Number `json:"iconfarm"`
	} `json:"owner"`
	Title       Content `json:"title"`
	Description Content `json:"description"`
	Dates       struct {
		Posted           string `json:"posted"`
		Taken            string `json:"taken"`
		TakenGranularity Number `json:"takengranularity"`
		TakenUnknown     Number `json:"takenunknown"`
		LastUpdate       string `json:"lastupdate"`
	} `json:"dates"`
	URLs struct {
		URL []struct {
			Type string `json:"type"`
			Text string `json:"_content"`
		} `json:"url"`
	} `json:"urls"`
	Tags struct {
		Tag []struct {
			Raw  string `json:"raw"`
			Text string `json:"_content"`
		} `json:"tag"`
	} `json:"tags"`
}

// PageURL returns the photopage URL, empty when Flickr omitted it
func (p *PhotoInfo) PageURL() string {
	for _, u := range p.URLs.URL {
		if u.Type == "photopage" {
			return u.Text
		}
	}
	return ""
}

// photoInfoResponse wraps flickr.photos.getInfo
type photoInfoResponse struct {
	Photo PhotoInfo `json:"photo"`
}

// Size is one entry of a flickr.photos.getSizes listing
type Size struct {
	Label  string `json:"label"`
	Width  Number `json:"width"`
	Height Number `json:"height"`
	Source string `json:"source"`
	URL    string `json:"url"`
	Media  string `json:"media"`
}

// sizesResponse wraps flickr.photos.getSizes
type sizesResponse struct {
	Sizes struct {
		CanDownload Number `json:"candownload"`
		Size        []Size `json:"size"`
	} `json:"sizes"`
}

// ContextSet is an album containing the photo (getAllContexts "set")
type ContextSet struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CountPhoto Number `json:"count_photo"`
}

// ContextPool is a group pool containing the photo (getAllContexts "pool")
type ContextPool struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Members   Number `json:"members"`
	PoolCount Number `json:"pool_count"`
}

// Contexts lists the albums and group pools a photo appears in
type Contexts struct {
	Sets  []ContextSet  `json:"set"`
	Pools []ContextPool `json:"pool"`
}

// Location is the geo record of a photo, all parts optional
type Location struct {
	Latitude      string  `json:"latitude"`
	Longitude     string  `json:"longitude"`
	Accuracy      string  `json:"accuracy"`
	Neighbourhood Content `json:"neighbourhood"`
	Locality      Content `json:"locality"`
	County        Content `json:"county"`
	Region        Content `json:"region"`
	Country       Content `json:"country"`
}

// Describe renders the location as "neighbourhood, locality, region, country",
// skipping empty parts
func (l *Location) Describe() string {
	parts := make([]string, 0, 4)
	for _, c := range []Content{l.Neighbourhood, l.Locality, l.Region, l.Country} {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, ", ")
}

// geoResponse wraps flickr.photos.geo.getLocation
type geoResponse struct {
	Photo struct {
		ID       string   `json:"id"`
		Location Location `json:"location"`
	} `json:"photo"`
}

// Photoset is one album from flickr.photosets.getList
type Photoset struct {
	ID          string  `json:"id"`
	Title       Content `json:"title"`
	Description Content `json:"description"`
	Photos      Number  `json:"photos"`
	CountPhotos Number  `json:"count_photos"`
	CountVideos Number  `json:"count_videos"`
	DateCreate  string  `json:"date_create"`
	DateUpdate  string  `json:"date_update"`
}

// photosetsResponse wraps flickr.photosets.getList
type photosetsResponse struct {
	Photosets struct {
		Page     Number     `json:"page"`
		Pages    Number     `json:"pages"`
		Total    Number     `json:"total"`
		Photoset []Photoset `json:"photoset"`
	} `json:"photosets"`
}

// Gallery is one gallery from flickr.galleries.getList. GalleryID is
// the short numeric id; ID is the compound owner-qualified form.
type Gallery struct {
	ID          string  `json:"id"`
	GalleryID   string  `json:"gallery_id"`
	URL         string  `json:"url"`
	Title       Content `json:"title"`
	Description Content `json:"description"`
	CountPhotos Number  `json:"count_photos"`
	CountViews  Number  `json:"count_views"`
	DateCreate  string  `json:"date_create"`
	DateUpdate  string  `json:"date_update"`
}

// galleriesResponse wraps flickr.galleries.getList
type galleriesResponse struct {
	Galleries struct {
		Total   Number    `json:"total"`
		Gallery []Gallery `json:"gallery"`
	} `json:"galleries"`
}

// RequestToken is the first leg of the OAuth 1.0a exchange
type RequestToken struct {
	Token       string
	TokenSecret string
}

// AccessToken is the authorized credential returned by the final
// OAuth exchange, identifying the Flickr account it is bound to
type AccessToken struct {
	Token       string
	TokenSecret string
	UserNSID    string
	Username    string
	FullName    string
}
