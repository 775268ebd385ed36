package inference

// searchPrompt asks the model for the exact record shape the parser and
// the stored documents use. Changing field names here breaks extraction.
const searchPrompt = `Search for recent US presidential proclamations about flag half-staff status from whitehouse.gov.
Look for any current or recent orders to lower flags to half-staff.

Return a JSON response with this exact structure:
{
  "status": "half_staff" or "full_staff",
  "reason": "brief description of why flags are at half-staff",
  "trigger_type": "death|memorial_day|tragedy|state_funeral",
  "person_honored": {
    "name": "Full Name",
    "title": "Official Title",
    "birth_date": "YYYY-MM-DD or null",
    "death_date": "YYYY-MM-DD or null"
  } or null,
  "event_details": {
    "event_name": "Event Name",
    "event_date": "YYYY-MM-DD",
    "description": "Description"
  } or null,
  "start_date": "YYYY-MM-DD",
  "end_date": "YYYY-MM-DD",
  "duration_days": number,
  "proclamation_id": "unique-id-based-on-content",
  "proclamation_url": "https://whitehouse.gov/..."
}

If no active half-staff proclamations found, return status as "full_staff" with reason "No active proclamations".
Make sure the proclamation_id is unique and based on the content (like "2025-01-carter-death").`
