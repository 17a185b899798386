package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
	"github.com/spigell/rfp-responder/internal/utils"
)

const (
	ProductsPath = "/products"

	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "spigell/rfp-responder"
	// Max value for per page.
	perPage = "100"
)

type itemResponse struct {
	Items   []item
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

type item interface{}

// Client reads the product catalog from a paged JSON API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	// PageDelay is the pause between two page requests.
	PageDelay time.Duration

	validate *validator.Validate
	logger   *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		UserAgent: userAgent,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Products fetches every page of the catalog.
func (c *Client) Products(ctx context.Context) (*types.Products, error) {
	q := url.Values{}
	q.Set("per_page", perPage)

	items, err := c.getItems(ctx, c.BaseURL+ProductsPath, q)
	if err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}

	var decoded []*types.Product
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &decoded,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, rfperr.InvalidData(err, "decoding products")
	}

	products, err := checkProducts(c.validate, decoded)
	if err != nil {
		return nil, err
	}

	c.logger.Info("products fetched", zap.String("url", c.BaseURL), zap.Int("count", products.Len()))

	return products, nil
}

// getItems requests url and returns the items of all pages.
func (c *Client) getItems(ctx context.Context, url string, q url.Values) ([]item, error) {
	var items []item

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	response, err := c.fetchPage(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got catalog response", zap.Int("pages", response.Pages), zap.Int("max items per page", response.PerPage))

	items = append(items, response.Items...)

	for response.Page < (response.Pages - 1) {
		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		if err := utils.WaitFor(ctx, c.PageDelay); err != nil {
			return nil, err
		}

		response, err = c.fetchPage(withPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)
	}

	return items, nil
}

func (c *Client) fetchPage(req *http.Request) (*itemResponse, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, rfperr.NotFound("catalog %s", req.URL.Path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response *itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, rfperr.InvalidData(err, "catalog page")
	}
	if response == nil {
		return nil, rfperr.InvalidData(nil, "empty catalog page")
	}

	return response, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

// withPage returns a copy of req asking for the given page.
func withPage(req *http.Request, page int) *http.Request {
	next := req.Clone(req.Context())
	q := next.URL.Query()
	q.Set("page", strconv.Itoa(page))
	next.URL.RawQuery = q.Encode()

	return next
}
