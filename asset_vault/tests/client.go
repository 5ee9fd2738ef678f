package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	"brandvault/asset_vault/metadata"
	"brandvault/asset_vault/services"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			return ErrUnauthorized
		}
		return fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, res.StatusCode, w.Body.String())
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

var ErrUnauthorized = errors.New("unauthorized")

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) request(method, endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, method, endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Get(endpoint string) *httpTestRequest {
	return c.request("GET", endpoint)
}

func (c *client) Post(endpoint string) *httpTestRequest {
	return c.request("POST", endpoint)
}

func (c *client) Put(endpoint string) *httpTestRequest {
	return c.request("PUT", endpoint)
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	return c.request("DELETE", endpoint)
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(username, email, password string) (loginInfo, error) {
	body := map[string]string{
		"email": email, "username": username, "password": password,
	}

	err := c.Post("/user/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) userInfo() (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Get("/user/info").Do(&res)
	return res, err
}

func (c *client) createTenant(name string) (string, error) {
	var res map[string]string
	err := c.Post("/tenant/create").Json(map[string]string{"name": name}).Do(&res)
	return res["tenant_id"], err
}

func (c *client) listTenants() ([]services.TenantInfo, error) {
	var res []services.TenantInfo
	err := c.Get("/tenant/list").Do(&res)
	return res, err
}

func (c *client) assignRole(tenantId, userId, role string) error {
	return c.Post(fmt.Sprintf("/tenant/%v/users/%v", tenantId, userId)).Json(map[string]string{"role": role}).Do(nil)
}

func (c *client) removeUser(tenantId, userId string) error {
	return c.Delete(fmt.Sprintf("/tenant/%v/users/%v", tenantId, userId)).Do(nil)
}

func (c *client) createBrand(tenantId, name string) (string, error) {
	var res map[string]string
	err := c.Post(fmt.Sprintf("/tenant/%v/brands", tenantId)).Json(map[string]string{"name": name}).Do(&res)
	return res["brand_id"], err
}

func (c *client) createCategory(tenantId, brandId, name string, systemCategoryId *string) (string, error) {
	body := map[string]interface{}{"name": name}
	if systemCategoryId != nil {
		body["system_category_id"] = *systemCategoryId
	}

	var res map[string]string
	err := c.Post(fmt.Sprintf("/tenant/%v/brands/%v/categories", tenantId, brandId)).Json(body).Do(&res)
	return res["category_id"], err
}

func (c *client) createSystemCategory(key, label string) (string, error) {
	var res map[string]string
	err := c.Post("/tenant/system-categories").Json(map[string]string{"key": key, "label": label}).Do(&res)
	return res["system_category_id"], err
}

func (c *client) linkSystemCategory(tenantId, categoryId string, systemCategoryId *string) error {
	body := map[string]interface{}{}
	if systemCategoryId != nil {
		body["system_category_id"] = *systemCategoryId
	}
	return c.Post(fmt.Sprintf("/tenant/%v/categories/%v/link", tenantId, categoryId)).Json(body).Do(nil)
}

type fieldArgs struct {
	Key          string                   `json:"key"`
	Label        string                   `json:"label"`
	Type         string                   `json:"type"`
	AppliesTo    string                   `json:"applies_to,omitempty"`
	Filterable   bool                     `json:"filterable"`
	InternalOnly bool                     `json:"internal_only"`
	GroupKey     *string                  `json:"group_key,omitempty"`
	Options      []map[string]interface{} `json:"options,omitempty"`
}

func (c *client) createField(tenantId string, args fieldArgs) (string, error) {
	var res map[string]string
	err := c.Post(fmt.Sprintf("/field/%v/fields", tenantId)).Json(args).Do(&res)
	return res["field_id"], err
}

func (c *client) createSystemField(args fieldArgs) (string, error) {
	var res map[string]string
	err := c.Post("/field/system/fields").Json(args).Do(&res)
	return res["field_id"], err
}

func (c *client) listFields(tenantId string) ([]services.FieldInfo, error) {
	var res []services.FieldInfo
	err := c.Get(fmt.Sprintf("/field/%v/fields", tenantId)).Do(&res)
	return res, err
}

func (c *client) addOption(tenantId, fieldId, value string, order int) (string, error) {
	body := map[string]interface{}{"value": value, "display_order": order}

	var res map[string]string
	err := c.Post(fmt.Sprintf("/field/%v/fields/%v/options", tenantId, fieldId)).Json(body).Do(&res)
	return res["option_id"], err
}

func (c *client) updateField(tenantId, fieldId string, args map[string]interface{}) error {
	return c.Put(fmt.Sprintf("/field/%v/fields/%v", tenantId, fieldId)).Json(args).Do(nil)
}

func (c *client) deprecateField(tenantId, fieldId string) error {
	return c.Post(fmt.Sprintf("/field/%v/fields/%v/deprecate", tenantId, fieldId)).Do(nil)
}

type overrideArgs struct {
	BrandId      *string `json:"brand_id,omitempty"`
	CategoryId   *string `json:"category_id,omitempty"`
	Hidden       bool    `json:"hidden"`
	UploadHidden bool    `json:"upload_hidden"`
	FilterHidden bool    `json:"filter_hidden"`
}

func (c *client) setFieldOverride(tenantId, fieldId string, args overrideArgs) error {
	return c.Put(fmt.Sprintf("/field/%v/fields/%v/override", tenantId, fieldId)).Json(args).Do(nil)
}

func (c *client) clearFieldOverride(tenantId, fieldId string, args overrideArgs) error {
	return c.Delete(fmt.Sprintf("/field/%v/fields/%v/override", tenantId, fieldId)).Json(args).Do(nil)
}

func (c *client) setOptionOverride(tenantId, optionId string, args overrideArgs) error {
	return c.Put(fmt.Sprintf("/field/%v/options/%v/override", tenantId, optionId)).Json(args).Do(nil)
}

func (c *client) suppressField(fieldId, systemCategoryId string) error {
	body := map[string]string{"system_category_id": systemCategoryId}
	return c.Post(fmt.Sprintf("/field/system/fields/%v/suppressions", fieldId)).Json(body).Do(nil)
}

func (c *client) unsuppressField(fieldId, systemCategoryId string) error {
	return c.Delete(fmt.Sprintf("/field/system/fields/%v/suppressions/%v", fieldId, systemCategoryId)).Do(nil)
}

func schemaQuery(brandId, categoryId *string, assetType string) string {
	query := url.Values{}
	if brandId != nil {
		query.Set("brand_id", *brandId)
	}
	if categoryId != nil {
		query.Set("category_id", *categoryId)
	}
	if assetType != "" {
		query.Set("asset_type", assetType)
	}
	if encoded := query.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}

func (c *client) resolveSchema(tenantId string, brandId, categoryId *string, assetType string) ([]metadata.ResolvedField, error) {
	var res struct {
		Fields []metadata.ResolvedField `json:"fields"`
	}
	err := c.Get(fmt.Sprintf("/schema/%v/schema%v", tenantId, schemaQuery(brandId, categoryId, assetType))).Do(&res)
	return res.Fields, err
}

func (c *client) uploadSchema(tenantId string, brandId, categoryId *string, assetType string) ([]metadata.UploadGroup, error) {
	var res struct {
		Groups []metadata.UploadGroup `json:"groups"`
	}
	err := c.Get(fmt.Sprintf("/schema/%v/upload-schema%v", tenantId, schemaQuery(brandId, categoryId, assetType))).Do(&res)
	return res.Groups, err
}
