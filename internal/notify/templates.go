package notify

import (
	"bytes"
	"log"
	"text/template"
)

var subjects = map[Kind]string{
	KindApproverAfterSubmit:      "DNS application awaiting your approval",
	KindDnsTaAfterApproverSubmit: "DNS application submitted by an approver",
	KindDnsTaAfterApprove:        "DNS application approved",
	KindApplicantAfterApprove:    "Your DNS application has been approved",
	KindApplicantAfterAccept:     "Your DNS application has been accepted",
	KindRejectedByApprover:       "DNS application rejected by approver",
	KindRejectedByDnsTa:          "DNS application rejected by administrator",
}

var bodies = map[Kind]string{
	KindApproverAfterSubmit: `{{.ApplicantName}} has filed a DNS application requiring your approval.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
Office: {{.OfficeRoom}} ext. {{.OfficeExt}}
`,
	KindDnsTaAfterApproverSubmit: `Approver {{.ApproverName}} has submitted a DNS application. It is approved and awaits acceptance.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
`,
	KindDnsTaAfterApprove: `The application by {{.ApplicantName}} has been approved by {{.ApproverName}} and awaits acceptance.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
`,
	KindApplicantAfterApprove: `Your DNS application has been approved by {{.ApproverName}}.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
`,
	KindApplicantAfterAccept: `Your DNS application has been accepted by the DNS team and will be carried out shortly.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
`,
	KindRejectedByApprover: `Your DNS application has been rejected by {{.ApproverName}}.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
Remark: {{.Remark}}
`,
	KindRejectedByDnsTa: `Your DNS application has been rejected by the administrator.

Record: {{.RecordName}} ({{.RecordType}}) -> {{.RecordData}}
Remark: {{.Remark}}
`,
}

var tmpl = template.New("mail")

func init() {
	for kind, body := range bodies {
		template.Must(tmpl.New(string(kind)).Parse(body))
	}
}

type fields struct {
	ApplicantName string
	ApproverName  string
	RecordName    string
	RecordType    string
	RecordData    string
	OfficeRoom    string
	OfficeExt     string
	Remark        string
}

func render(kind Kind, to string, cc []string, ev Event) Message {
	f := fields{
		RecordName: ev.Application.RecordName,
		RecordType: string(ev.Application.RecordType),
		RecordData: ev.Application.RecordData,
		OfficeRoom: ev.Application.OfficeRoom,
		OfficeExt:  ev.Application.OfficeExt,
		Remark:     ev.Remark,
	}
	if ev.Applicant != nil {
		f.ApplicantName = ev.Applicant.Name
	}
	if ev.Approver != nil {
		f.ApproverName = ev.Approver.Name
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, string(kind), f); err != nil {
		log.Printf("notify: template %s: %v", kind, err)
	}
	return Message{
		Kind:    kind,
		To:      to,
		Cc:      cc,
		Subject: subjects[kind],
		Body:    buf.String(),
	}
}
