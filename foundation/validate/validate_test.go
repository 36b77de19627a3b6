package validate_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Check(t *testing.T) {
	type model struct {
		Recipient string  `json:"recipient" validate:"required"`
		Amount    float64 `json:"amount" validate:"gte=0"`
	}

	t.Log("Given the need to validate request models.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling an invalid model.", testID)
		{
			err := validate.Check(model{Amount: -1})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

			fields := validate.GetFieldErrors(err).Fields()
			if _, exists := fields["recipient"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould name the field by its json tag: %v", failed, testID, fields)
			}
			if _, exists := fields["amount"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould report every field: %v", failed, testID, fields)
			}
			t.Logf("\t%s\tTest %d:\tShould name the fields by their json tag.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling a valid model.", testID)
		{
			if err := validate.Check(model{Recipient: "bob", Amount: 1}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
		}
	}
}
