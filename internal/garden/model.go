package garden

// LogOwnerType distinguishes plant-scoped from garden-scoped log entries.
// The discriminator is fixed at creation and never changes afterwards.
type LogOwnerType string

const (
	// LogOwnerPlant marks a log entry that belongs to a single plant.
	LogOwnerPlant LogOwnerType = "plant"
	// LogOwnerGarden marks a log entry that belongs to the garden as a whole.
	LogOwnerGarden LogOwnerType = "garden"
)

// NotebookKind enumerates the notebook entry types.
type NotebookKind string

const (
	// NotebookNote is a free-form note on the timeline.
	NotebookNote NotebookKind = "NOTE"
	// NotebookTask is a completable task, optionally recurring.
	NotebookTask NotebookKind = "TASK"
)

// LocationPin places a plant on a garden area using relative coordinates.
// Pins are not independently addressable; they live inside a plant's
// location list.
type LocationPin struct {
	GardenAreaID string  `json:"gardenAreaId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

// WeatherSnapshot captures the conditions attached to a log or post.
type WeatherSnapshot struct {
	TemperatureC  float64 `json:"temperatureC"`
	ConditionCode int     `json:"conditionCode"`
}

// Plant models a tracked plant with its placement pins.
type Plant struct {
	UserID           string        `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_plants_user_active,priority:1"`
	PlantID          string        `gorm:"column:plant_id;primaryKey;size:190;not null"`
	Name             string        `gorm:"column:name;size:190;not null"`
	ScientificName   string        `gorm:"column:scientific_name;size:190"`
	Description      string        `gorm:"column:description;type:text"`
	CareInstructions string        `gorm:"column:care_instructions;type:text"`
	ImageURL         string        `gorm:"column:image_url;size:512"`
	PlantedAtSeconds int64         `gorm:"column:planted_at_s"`
	Indoor           bool          `gorm:"column:indoor;not null;default:false"`
	IsActive         bool          `gorm:"column:is_active;not null;default:true;index:idx_plants_user_active,priority:2"`
	Sequence         int           `gorm:"column:sequence;not null;default:1"`
	Locations        []LocationPin `gorm:"column:locations;serializer:json"`
	CreatedAtSeconds int64         `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds int64         `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Plant) TableName() string {
	return "plants"
}

// LogEntry records a dated event against a plant or the garden.
type LogEntry struct {
	UserID           string       `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_logs_user_owner,priority:1"`
	LogID            string       `gorm:"column:log_id;primaryKey;size:190;not null"`
	OwnerType        LogOwnerType `gorm:"column:owner_type;size:16;not null;index:idx_logs_user_owner,priority:2"`
	OwnerID          string       `gorm:"column:owner_id;size:190;not null;index:idx_logs_user_owner,priority:3"`
	DateSeconds      int64        `gorm:"column:date_s;not null"`
	Title            string       `gorm:"column:title;size:190;not null"`
	Description      string       `gorm:"column:description;type:text"`
	ImageURL         string       `gorm:"column:image_url;size:512"`
	WeatherTempC     *float64     `gorm:"column:weather_temp_c"`
	WeatherCode      *int         `gorm:"column:weather_code"`
	CreatedAtSeconds int64        `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (LogEntry) TableName() string {
	return "log_entries"
}

// Weather returns the attached snapshot, or nil when none was recorded.
func (e LogEntry) Weather() *WeatherSnapshot {
	if e.WeatherTempC == nil || e.WeatherCode == nil {
		return nil
	}
	return &WeatherSnapshot{TemperatureC: *e.WeatherTempC, ConditionCode: *e.WeatherCode}
}

// GardenArea is a named region of the garden that plants pin onto.
type GardenArea struct {
	UserID           string `gorm:"column:user_id;primaryKey;size:190;not null"`
	AreaID           string `gorm:"column:area_id;primaryKey;size:190;not null"`
	Name             string `gorm:"column:name;size:190;not null"`
	ImageURL         string `gorm:"column:image_url;size:512"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (GardenArea) TableName() string {
	return "garden_areas"
}

// NotebookEntry is a note or task on the user's timeline.
type NotebookEntry struct {
	UserID           string       `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_notebook_user_date,priority:1"`
	EntryID          string       `gorm:"column:entry_id;primaryKey;size:190;not null"`
	Kind             NotebookKind `gorm:"column:kind;size:16;not null"`
	Title            string       `gorm:"column:title;size:190;not null"`
	Description      string       `gorm:"column:description;type:text"`
	DateSeconds      int64        `gorm:"column:date_s;not null;index:idx_notebook_user_date,priority:2"`
	ImageURL         string       `gorm:"column:image_url;size:512"`
	Completed        bool         `gorm:"column:completed;not null;default:false"`
	Recurrence       string       `gorm:"column:recurrence;size:32"`
	ParentID         string       `gorm:"column:parent_id;size:190"`
	CreatedAtSeconds int64        `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (NotebookEntry) TableName() string {
	return "notebook_entries"
}

// SocialPost is a shared garden update visible in the feed.
type SocialPost struct {
	PostID           string   `gorm:"column:post_id;primaryKey;size:190;not null"`
	AuthorID         string   `gorm:"column:author_id;size:190;not null;index"`
	AuthorName       string   `gorm:"column:author_name;size:190"`
	PlantName        string   `gorm:"column:plant_name;size:190"`
	Title            string   `gorm:"column:title;size:190;not null"`
	Description      string   `gorm:"column:description;type:text"`
	ImageURL         string   `gorm:"column:image_url;size:512"`
	EventDateSeconds int64    `gorm:"column:event_date_s;not null"`
	WeatherTempC     *float64 `gorm:"column:weather_temp_c"`
	WeatherCode      *int     `gorm:"column:weather_code"`
	CreatedAtSeconds int64    `gorm:"column:created_at_s;not null;index:idx_posts_created,sort:desc"`
}

// TableName provides the explicit table binding for GORM.
func (SocialPost) TableName() string {
	return "social_posts"
}

// PostLike records one user liking one post.
type PostLike struct {
	PostID           string `gorm:"column:post_id;primaryKey;size:190;not null"`
	UserID           string `gorm:"column:user_id;primaryKey;size:190;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (PostLike) TableName() string {
	return "post_likes"
}

// PostComment is an ordered comment on a social post.
type PostComment struct {
	CommentID        string `gorm:"column:comment_id;primaryKey;size:190;not null"`
	PostID           string `gorm:"column:post_id;size:190;not null;index:idx_comments_post_time,priority:1"`
	UserID           string `gorm:"column:user_id;size:190;not null"`
	AuthorName       string `gorm:"column:author_name;size:190"`
	Body             string `gorm:"column:body;type:text;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null;index:idx_comments_post_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (PostComment) TableName() string {
	return "post_comments"
}

// HomeLocation is the user's single weather reference point.
type HomeLocation struct {
	UserID      string  `gorm:"column:user_id;primaryKey;size:190;not null"`
	Latitude    float64 `gorm:"column:latitude;not null"`
	Longitude   float64 `gorm:"column:longitude;not null"`
	DisplayName string  `gorm:"column:display_name;size:190"`
	CountryCode string  `gorm:"column:country_code;size:8"`
}

// TableName provides the explicit table binding for GORM.
func (HomeLocation) TableName() string {
	return "home_locations"
}

// ProfileSettings is the remote sink for the user's settings record.
type ProfileSettings struct {
	UserID           string `gorm:"column:user_id;primaryKey;size:190;not null"`
	PayloadJSON      string `gorm:"column:payload_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (ProfileSettings) TableName() string {
	return "profile_settings"
}
