// Package forms turns raw submitted product input into validated values.
// It knows nothing about HTTP; handlers fill a ProductInput from the request.
package forms

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Photo is one uploaded file.
type Photo struct {
	FileName    string `form:"file_name" validate:"required"`
	ContentType string `form:"content_type" validate:"image"`
	Data        []byte `form:"-"`
}

// ProductInput is the raw product form as submitted.
type ProductInput struct {
	Name        string  `form:"name" validate:"required,max=255"`
	Description string  `form:"description" validate:"required"`
	Price       string  `form:"price" validate:"required"`
	Count       string  `form:"count" validate:"required,number"`
	CategoryID  string  `form:"category_id" validate:"required,number"`
	Photos      []Photo `form:"photos" validate:"dive"`
}

// ProductFields holds the typed scalar values of a validated ProductInput.
type ProductFields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Count       int
	CategoryID  uint
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("image", func(fl validator.FieldLevel) bool {
		return IsImageType(fl.Field().String())
	})
	return v
}

// IsImageType reports whether a MIME type denotes an image.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// ValidateCreate validates input for a new product. At least one photo is required.
func ValidateCreate(in ProductInput) (ProductFields, error) {
	fields, ve := validateProduct(in)
	if len(in.Photos) == 0 {
		ve.Add("photos", "at least one photo is required")
	}
	return fields, ve.orNil()
}

// ValidateUpdate validates input for an existing product. Photos are optional.
func ValidateUpdate(in ProductInput) (ProductFields, error) {
	fields, ve := validateProduct(in)
	return fields, ve.orNil()
}

func validateProduct(in ProductInput) (ProductFields, *ValidationError) {
	ve := &ValidationError{}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = strings.TrimSpace(in.Price)
	in.Count = strings.TrimSpace(in.Count)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !asValidationErrors(err, &verrs) {
			ve.Add("form", err.Error())
			return ProductFields{}, ve
		}
		for _, e := range verrs {
			ve.Add(fieldName(e), message(e))
		}
	}

	fields := ProductFields{Name: in.Name, Description: in.Description}

	if in.Price != "" {
		price, err := ParsePrice(in.Price)
		if err != nil {
			ve.Add("price", err.Error())
		}
		fields.Price = price
	}
	if !ve.Has("count") {
		count, err := strconv.Atoi(in.Count)
		if err != nil {
			ve.Add("count", "must be a whole number")
		}
		fields.Count = count
	}
	if !ve.Has("category_id") {
		id, err := strconv.ParseUint(in.CategoryID, 10, 64)
		if err != nil || id == 0 {
			ve.Add("category_id", "must reference a category")
		}
		fields.CategoryID = uint(id)
	}
	return fields, ve
}

// pricePattern allows two decimal places and at most 15 significant digits,
// which SQLite's NUMERIC affinity stores without rounding.
var pricePattern = regexp.MustCompile(`^\d{1,13}([.,]\d{1,2})?$`)

// ParsePrice parses a price written with either ',' or '.' as the decimal separator.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, fmt.Errorf("price must not be negative")
	}
	if !pricePattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%q is not a valid price", raw)
	}
	price, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a valid price", raw)
	}
	return price, nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// fieldName turns "ProductInput.photos[1].content_type" into "photos[1].content_type".
func fieldName(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "number":
		return "must be a whole number"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "image":
		return "file type must be image"
	default:
		return fmt.Sprintf("failed on the '%s' tag", e.Tag())
	}
}
