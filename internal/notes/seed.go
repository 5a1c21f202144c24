package notes

// DefaultCategories are stored on first run when no categories exist.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Personal", Color: "#A69E8F"},
		{ID: "2", Name: "Work", Color: "#8C8579"},
		{ID: "3", Name: "Ideas", Color: "#736D64"},
	}
}

// DefaultTags are stored on first run when no tags exist.
func DefaultTags() []Tag {
	return []Tag{
		{ID: "1", Name: "Important", Color: "#9E9589"},
		{ID: "2", Name: "Todo", Color: "#8A8276"},
		{ID: "3", Name: "Research", Color: "#766F66"},
	}
}
