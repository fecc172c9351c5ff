package transport

import "time"

type SubmitVehicleRequest struct {
	Make                string `json:"make" validate:"required,max=64"`
	Model               string `json:"model" validate:"required,max=64"`
	Year                int    `json:"year" validate:"required,gte=1990,lte=2100"`
	Color               string `json:"color" validate:"omitempty,max=32"`
	PlateNumber         string `json:"plateNumber" validate:"required,plate"`
	RegistrationCountry string `json:"registrationCountry" validate:"required,country"`
	Seats               int    `json:"seats" validate:"required,min=1,max=8"`
	OwnerPhone          string `json:"ownerPhone" validate:"omitempty,max=32"`
}

type ReviewVehicleRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Note     string `json:"note" validate:"max=1000"`
}

type PresignDocumentRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

type ListVehiclesQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending approved rejected"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

type VehicleResponse struct {
	ID                  string     `json:"id"`
	OwnerID             string     `json:"ownerId"`
	Make                string     `json:"make"`
	Model               string     `json:"model"`
	Year                int        `json:"year"`
	Color               string     `json:"color,omitempty"`
	PlateNumber         string     `json:"plateNumber"`
	RegistrationCountry string     `json:"registrationCountry"`
	Seats               int        `json:"seats"`
	OwnerPhone          string     `json:"ownerPhone,omitempty"`
	Status              string     `json:"status"`
	ReviewNote          *string    `json:"reviewNote,omitempty"`
	ReviewedAt          *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

type VehicleListResponse struct {
	Items []VehicleResponse `json:"items"`
}

type DocumentResponse struct {
	ID          string     `json:"id"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type PresignDocumentResponse struct {
	Document  DocumentResponse `json:"document"`
	UploadURL string           `json:"uploadUrl"`
	FileKey   string           `json:"fileKey"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type VehicleDetailResponse struct {
	VehicleResponse
	Documents []DocumentResponse `json:"documents"`
}
