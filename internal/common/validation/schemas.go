package validation

// CustomerApplicationSchema mirrors the public customer creation contract.
const CustomerApplicationSchema = `{
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "name":          {"type": "string", "minLength": 1, "maxLength": 40},
    "email":         {"type": "string", "maxLength": 40, "pattern": "^[\\w\\.-]+@[\\w\\.-]+\\.\\w+$"},
    "phone":         {"type": ["string", "null"], "pattern": "^07\\d{9}$"},
    "date_of_birth": {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "national_id":   {"type": ["string", "null"]},
    "addresses": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["street", "city", "state", "zip_code", "country"],
        "properties": {
          "street":   {"type": "string"},
          "city":     {"type": "string"},
          "state":    {"type": "string"},
          "zip_code": {"type": "string"},
          "country":  {"type": "string"}
        }
      }
    }
  }
}`

const BlacklistEntrySchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name":          {"type": "string", "minLength": 1},
    "email":         {"type": ["string", "null"]},
    "phone":         {"type": ["string", "null"]},
    "date_of_birth": {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
  }
}`

const FraudRequestSchema = `{
  "type": "object",
  "required": ["name", "address", "email"],
  "properties": {
    "name":          {"type": "string", "minLength": 2, "maxLength": 80},
    "address":       {"type": "string", "minLength": 8, "maxLength": 200},
    "date_of_birth": {"type": ["string", "null"], "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "email":         {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"}
  }
}`
